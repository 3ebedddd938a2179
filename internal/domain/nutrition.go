package domain

import (
	"encoding/json"
	"time"
)

// UnavailableMarker is rendered in place of a total for nutrients that no
// ingredient reported. It is distinct from a measured zero.
const UnavailableMarker = "Data tidak tersedia"

// Source identifies where a nutrient reading came from
type Source string

const (
	SourceLocal  Source = "LOCAL"
	SourceRemote Source = "REMOTE"
)

// NutrientReading is a raw nutrient value returned by a composition source,
// already scaled to the ingredient quantity but not yet normalized.
type NutrientReading struct {
	Nutrient string  `json:"nutrient"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
	Source   Source  `json:"source"`
}

// NormalizedNutrient is one canonical nutrient value for a single ingredient
type NormalizedNutrient struct {
	Key    NutrientKey `json:"key"`
	Value  float64     `json:"value"`
	Unit   string      `json:"unit"`
	Source Source      `json:"source"`
}

// NutrientTotal is an aggregated value that may be unavailable
type NutrientTotal struct {
	Value     float64
	Available bool
}

// NutritionSummary holds per-key totals across all ingredients
type NutritionSummary struct {
	Totals map[NutrientKey]NutrientTotal
	Date   time.Time
}

// Value returns the total for key and whether it was observed
func (s NutritionSummary) Value(key NutrientKey) (float64, bool) {
	t, ok := s.Totals[key]
	if !ok || !t.Available {
		return 0, false
	}
	return t.Value, true
}

// MarshalJSON renders every canonical key, using UnavailableMarker for
// nutrients that were never observed, plus the ISO-8601 date.
func (s NutritionSummary) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(AllNutrientKeys)+1)
	for _, key := range AllNutrientKeys {
		t, ok := s.Totals[key]
		if ok && t.Available {
			out[string(key)] = t.Value
		} else {
			out[string(key)] = UnavailableMarker
		}
	}
	out["date"] = s.Date.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (s *NutritionSummary) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Totals = make(map[NutrientKey]NutrientTotal, len(AllNutrientKeys))
	for _, key := range AllNutrientKeys {
		if v, ok := raw[string(key)].(float64); ok {
			s.Totals[key] = NutrientTotal{Value: v, Available: true}
		}
	}
	if v, ok := raw["date"].(string); ok {
		date, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return err
		}
		s.Date = date
	}
	return nil
}

// AnalyzedIngredient is one interpreted ingredient with its resolved nutrients
type AnalyzedIngredient struct {
	Name      string               `json:"name"`
	NameEn    string               `json:"name_en"`
	Quantity  float64              `json:"quantity"`
	Unit      string               `json:"unit"`
	Nutrients []NormalizedNutrient `json:"nutrients"`
}

// Analysis is the result of analyzing a list of ingredient lines
type Analysis struct {
	Ingredients      []AnalyzedIngredient `json:"ingredients"`
	NutritionSummary NutritionSummary     `json:"nutrition_summary"`
}

// CompositionRow is one row of the local composition store.
// Amounts are per 100 g (or ml) of food.
type CompositionRow struct {
	FdcID    int64   `json:"fdc_id"`
	Food     string  `json:"Food"`
	Nutrient string  `json:"Nutrient"`
	Amount   float64 `json:"Amount"`
	Unit     string  `json:"Unit"`
}

// USDAFood represents a food item from the USDA FoodData Central API
type USDAFood struct {
	FdcID       int            `json:"fdcId"`
	Description string         `json:"description"`
	DataType    string         `json:"dataType"`
	FoodClass   string         `json:"foodClass,omitempty"`
	Nutrients   []USDANutrient `json:"foodNutrients"`
}

// USDANutrient represents a single nutrient from USDA data
type USDANutrient struct {
	NutrientID     int     `json:"nutrientId"`
	NutrientName   string  `json:"nutrientName"`
	NutrientNumber string  `json:"nutrientNumber,omitempty"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// USDASearchResponse represents the response from USDA search API
type USDASearchResponse struct {
	Foods       []USDAFood `json:"foods"`
	TotalHits   int        `json:"totalHits"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}

// MatchResult represents the result of a remote candidate selection
type MatchResult struct {
	FdcID         int      `json:"fdcId"`
	Description   string   `json:"description"`
	Similarity    float64  `json:"similarity"` // 0-1
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}
