package domain

import (
	"fmt"
	"strings"
)

// NutrientKey is one canonical nutrient identifier
type NutrientKey string

const (
	Calories   NutrientKey = "calories"
	Protein    NutrientKey = "protein"
	Carbs      NutrientKey = "carbs"
	Fat        NutrientKey = "fat"
	Fiber      NutrientKey = "fiber"
	Sugar      NutrientKey = "sugar"
	AddedSugar NutrientKey = "added_sugar"
	Sodium     NutrientKey = "sodium"
	FolicAcid  NutrientKey = "folic_acid"
	Calcium    NutrientKey = "calcium"
	VitaminD   NutrientKey = "vitamin_d"
	VitaminB6  NutrientKey = "vitamin_b6"
	VitaminB12 NutrientKey = "vitamin_b12"
	VitaminC   NutrientKey = "vitamin_c"
	VitaminA   NutrientKey = "vitamin_a"
	VitaminE   NutrientKey = "vitamin_e"
	Zinc       NutrientKey = "zinc"
	Iodine     NutrientKey = "iodine"
	Iron       NutrientKey = "iron"
	Magnesium  NutrientKey = "magnesium"
	Selenium   NutrientKey = "selenium"
	Water      NutrientKey = "water"
)

// AllNutrientKeys lists the closed set of canonical keys in display order
var AllNutrientKeys = []NutrientKey{
	Calories, Protein, Carbs, Fat, Fiber, Sugar, AddedSugar, Sodium,
	FolicAcid, Calcium, VitaminD, VitaminB6, VitaminB12, VitaminC,
	VitaminA, VitaminE, Zinc, Iodine, Iron, Magnesium, Selenium, Water,
}

// IsValid reports whether k belongs to the canonical set
func (k NutrientKey) IsValid() bool {
	_, ok := nutrientUnits[k]
	return ok
}

// Canonical nutrient units. Readings are never cross-converted between
// these, except kJ to kcal.
const (
	UnitKcal      = "kcal"
	UnitMilligram = "mg"
	UnitMicrogram = "µg" // U+00B5
)

var nutrientUnits = map[NutrientKey]string{
	Calories:   UnitKcal,
	Protein:    UnitGram,
	Carbs:      UnitGram,
	Fat:        UnitGram,
	Fiber:      UnitGram,
	Sugar:      UnitGram,
	AddedSugar: UnitGram,
	Sodium:     UnitMilligram,
	FolicAcid:  UnitMicrogram,
	Calcium:    UnitMilligram,
	VitaminD:   UnitMicrogram,
	VitaminB6:  UnitMilligram,
	VitaminB12: UnitMicrogram,
	VitaminC:   UnitMilligram,
	VitaminA:   UnitMicrogram,
	VitaminE:   UnitMilligram,
	Zinc:       UnitMilligram,
	Iodine:     UnitMicrogram,
	Iron:       UnitMilligram,
	Magnesium:  UnitMilligram,
	Selenium:   UnitMicrogram,
	Water:      UnitMilliliter,
}

// Unit returns the canonical unit of k, or "" for unknown keys
func (k NutrientKey) Unit() string {
	return nutrientUnits[k]
}

// AcceptsUnit reports whether a normalized reading unit can be summed into k.
// Water is reported by mass or volume; 1 g counts as 1 ml.
func (k NutrientKey) AcceptsUnit(unit string) bool {
	canonical, ok := nutrientUnits[k]
	if !ok {
		return false
	}
	if unit == canonical {
		return true
	}
	return k == Water && unit == UnitGram
}

// NutrientAlias maps raw nutrient names onto a canonical key.
// A raw name matches when it contains any alias and none of the excludes
// (case-insensitive substring match). Fallbacks are labels that count for
// the key only when an ingredient has no reading matching an alias, such as
// a USDA "NLEA" duplicate or a component of the total.
type NutrientAlias struct {
	Key       NutrientKey
	Aliases   []string
	Excludes  []string
	Fallbacks []string
}

// Matches reports whether the lowercased raw name classifies into a.Key
func (a NutrientAlias) Matches(lowerName string) bool {
	for _, ex := range a.Excludes {
		if strings.Contains(lowerName, ex) {
			return false
		}
	}
	for _, alias := range a.Aliases {
		if strings.Contains(lowerName, alias) {
			return true
		}
	}
	return false
}

// MatchesFallback reports whether the lowercased raw name is one of the
// key's fallback labels
func (a NutrientAlias) MatchesFallback(lowerName string) bool {
	for _, fb := range a.Fallbacks {
		if strings.Contains(lowerName, fb) {
			return true
		}
	}
	return false
}

// DefaultNutrientAliases covers English (USDA) and Indonesian (TKPI) labels.
// USDA reports several overlapping labels per nutrient (NLEA duplicates, IU
// twins, subsets such as "Folate, food" or "Sugars, added"); those are
// excluded or demoted to fallbacks so one food is never counted twice.
var DefaultNutrientAliases = []NutrientAlias{
	{
		Key:       Calories,
		Aliases:   []string{"energy", "energi", "calories", "kcal"},
		Excludes:  []string{"atwater"},
		Fallbacks: []string{"atwater general"},
	},
	{Key: Protein, Aliases: []string{"protein"}, Excludes: []string{"adjusted"}},
	{
		Key:       Carbs,
		Aliases:   []string{"carbohydrate", "carbs", "karbohidrat"},
		Excludes:  []string{"by summation", "other"},
		Fallbacks: []string{"carbohydrate, by summation"},
	},
	{
		Key:       Fat,
		Aliases:   []string{"total lipid", "fat", "lemak"},
		Excludes:  []string{"fatty acid", "nlea"},
		Fallbacks: []string{"total fat (nlea)"},
	},
	{
		Key:       Fiber,
		Aliases:   []string{"fiber", "fibre", "serat"},
		Excludes:  []string{"soluble", "aoac", "molecular weight"},
		Fallbacks: []string{"aoac"},
	},
	{
		Key:       Sugar,
		Aliases:   []string{"sugar", "gula"},
		Excludes:  []string{"added", "nlea"},
		Fallbacks: []string{"sugars, total including nlea"},
	},
	{Key: AddedSugar, Aliases: []string{"added sugar", "sugars, added"}},
	{Key: Sodium, Aliases: []string{"sodium", "natrium"}},
	{
		Key:       FolicAcid,
		Aliases:   []string{"folat"},
		Excludes:  []string{"folate, food", "dfe"},
		Fallbacks: []string{"folic acid"},
	},
	{Key: Calcium, Aliases: []string{"calcium", "kalsium"}},
	{
		Key:       VitaminD,
		Aliases:   []string{"vitamin d"},
		Excludes:  []string{"international units", "calciferol"},
		Fallbacks: []string{"calciferol"},
	},
	{Key: VitaminB6, Aliases: []string{"vitamin b-6", "vitamin b6"}},
	{Key: VitaminB12, Aliases: []string{"vitamin b-12", "vitamin b12"}, Excludes: []string{"added"}},
	{Key: VitaminC, Aliases: []string{"vitamin c", "ascorbic acid"}},
	{
		Key:       VitaminA,
		Aliases:   []string{"vitamin a"},
		Excludes:  []string{"international units", ", iu"},
		Fallbacks: []string{"retinol"},
	},
	{Key: VitaminE, Aliases: []string{"vitamin e"}, Excludes: []string{"added", "international units", ", iu"}},
	{Key: Zinc, Aliases: []string{"zinc", "seng"}},
	{Key: Iodine, Aliases: []string{"iodine", "iodium", "yodium"}},
	{Key: Iron, Aliases: []string{"iron", "besi"}},
	{Key: Magnesium, Aliases: []string{"magnesium"}},
	{Key: Selenium, Aliases: []string{"selenium"}},
	{Key: Water, Aliases: []string{"water", "moisture"}, Excludes: []string{"atwater"}},
}

// ValidateAliases checks that the table only uses canonical keys, has
// lowercase aliases, and that no alias string would classify into two keys.
func ValidateAliases(table []NutrientAlias) error {
	seen := make(map[NutrientKey]bool, len(table))
	for _, entry := range table {
		if !entry.Key.IsValid() {
			return fmt.Errorf("%w: unknown key %q", ErrAmbiguousAlias, entry.Key)
		}
		if seen[entry.Key] {
			return fmt.Errorf("%w: key %q listed twice", ErrAmbiguousAlias, entry.Key)
		}
		seen[entry.Key] = true
		if len(entry.Aliases) == 0 {
			return fmt.Errorf("%w: key %q has no aliases", ErrAmbiguousAlias, entry.Key)
		}
		labels := append(append([]string{}, entry.Aliases...), entry.Excludes...)
		for _, alias := range append(labels, entry.Fallbacks...) {
			if alias == "" || alias != strings.ToLower(alias) {
				return fmt.Errorf("%w: alias %q of %q must be non-empty lowercase", ErrAmbiguousAlias, alias, entry.Key)
			}
		}
	}

	// Every alias is itself a possible raw name; it must land in one key only.
	for _, owner := range table {
		for _, alias := range owner.Aliases {
			for _, other := range table {
				if other.Key == owner.Key {
					continue
				}
				if owner.Matches(alias) && other.Matches(alias) {
					return fmt.Errorf("%w: %q matches both %q and %q", ErrAmbiguousAlias, alias, owner.Key, other.Key)
				}
			}
		}
		// A fallback label must not be claimed by any key's aliases
		// or by another key's fallbacks.
		for _, fb := range owner.Fallbacks {
			for _, other := range table {
				if other.Matches(fb) {
					return fmt.Errorf("%w: fallback %q of %q matches aliases of %q", ErrAmbiguousAlias, fb, owner.Key, other.Key)
				}
				if other.Key != owner.Key && other.MatchesFallback(fb) {
					return fmt.Errorf("%w: fallback %q matches both %q and %q", ErrAmbiguousAlias, fb, owner.Key, other.Key)
				}
			}
		}
	}

	return nil
}
