package domain

import "time"

// Canonical quantity units produced by ingredient interpretation
const (
	UnitGram       = "g"
	UnitMilliliter = "ml"
)

// ParsedIngredient is a structured ingredient produced from one free-text line
type ParsedIngredient struct {
	NameLocal     string  `json:"name_id"`
	NameCanonical string  `json:"name_en"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
}

// ResolvedIngredient pairs an ingredient with the readings found for it
type ResolvedIngredient struct {
	Parsed   ParsedIngredient
	Readings []NutrientReading
}

// MealSource identifies how a meal entered the log
type MealSource string

const (
	MealSourceRecipe  MealSource = "recipe"
	MealSourceBarcode MealSource = "barcode"
	MealSourceManual  MealSource = "manual"
)

// IsValid reports whether s is a known meal source
func (s MealSource) IsValid() bool {
	switch s {
	case MealSourceRecipe, MealSourceBarcode, MealSourceManual:
		return true
	}
	return false
}

// MealEntry is a single logged meal with its nutrient totals
type MealEntry struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	Date      string                  `json:"date"` // YYYY-MM-DD
	Source    MealSource              `json:"source"`
	SourceID  string                  `json:"source_id,omitempty"`
	Totals    map[NutrientKey]float64 `json:"totals"`
	CreatedAt time.Time               `json:"created_at"`
}

// DailyLog is the accumulated nutrient intake of one user on one day
type DailyLog struct {
	UserID string                  `json:"user_id"`
	Date   string                  `json:"date"`
	Totals map[NutrientKey]float64 `json:"totals"`
	Meals  []MealEntry             `json:"meals"`
}

// ActivityLevel is the self-reported activity level of a user
type ActivityLevel string

const (
	ActivityLight    ActivityLevel = "ringan"
	ActivityModerate ActivityLevel = "sedang"
	ActivityHeavy    ActivityLevel = "berat"
)

// MotherProfile holds the inputs of the daily target calculation
type MotherProfile struct {
	WeightKg            float64       `json:"weight"`
	HeightCm            float64       `json:"height"`
	Birthdate           time.Time     `json:"birthdate"`
	ActivityLevel       ActivityLevel `json:"activity_level"`
	GestationalAgeWeeks int           `json:"gestational_age"`
}

// DailyTarget is the recommended daily intake per nutrient
type DailyTarget struct {
	Trimester int                     `json:"trimester"`
	Targets   map[NutrientKey]float64 `json:"targets"`
}

// DailyProgress compares a day's intake against the daily target
type DailyProgress struct {
	Log       *DailyLog               `json:"log"`
	Target    DailyTarget             `json:"target"`
	Remaining map[NutrientKey]float64 `json:"remaining"`
}
