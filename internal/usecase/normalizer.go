package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/gizibunda/backend/internal/domain"
)

const kjPerKcal = 4.184

// Canonical unit symbols
const (
	unitKcal      = domain.UnitKcal
	unitKJ        = "kj"
	unitGram      = domain.UnitGram
	unitMilligram = domain.UnitMilligram
	unitMicrogram = domain.UnitMicrogram
	unitMl        = domain.UnitMilliliter
)

// micrograms arrive in many spellings; keys are lowercase
var microgramSpellings = map[string]bool{
	"ug":  true,
	"mcg": true,
	"µg":  true, // U+00B5 micro sign
	"μg":  true, // U+03BC greek mu
}

// Normalizer classifies raw nutrient names into canonical keys and
// canonicalizes units. It holds no mutable state.
type Normalizer struct {
	aliases []domain.NutrientAlias
}

// NewNormalizer validates the alias table and returns a normalizer over it
func NewNormalizer(aliases []domain.NutrientAlias) (*Normalizer, error) {
	if err := domain.ValidateAliases(aliases); err != nil {
		return nil, err
	}
	return &Normalizer{aliases: aliases}, nil
}

// MustNewNormalizer is NewNormalizer for static tables known to be valid
func MustNewNormalizer(aliases []domain.NutrientAlias) *Normalizer {
	n, err := NewNormalizer(aliases)
	if err != nil {
		panic(fmt.Sprintf("invalid nutrient alias table: %v", err))
	}
	return n
}

// Classify maps a raw nutrient name onto a canonical key, trying keys in
// table order. Names that match no key are not tracked.
func (n *Normalizer) Classify(nutrientName string) (domain.NutrientKey, bool) {
	key, _, ok := n.classify(nutrientName)
	return key, ok
}

// classify is Classify that also reports whether the name only matched one
// of the key's fallback labels. Aliases of every key are tried before any
// fallback.
func (n *Normalizer) classify(nutrientName string) (key domain.NutrientKey, fallback bool, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(nutrientName))
	if lower == "" {
		return "", false, false
	}
	for _, entry := range n.aliases {
		if entry.Matches(lower) {
			return entry.Key, false, true
		}
	}
	for _, entry := range n.aliases {
		if entry.MatchesFallback(lower) {
			return entry.Key, true, true
		}
	}
	return "", false, false
}

// Track classifies a reading and reports whether its unit, once
// normalized, is the key's canonical unit. Only tracked readings reach
// the summary.
func (n *Normalizer) Track(r domain.NutrientReading) (domain.NutrientKey, bool) {
	key, ok := n.Classify(r.Nutrient)
	if !ok {
		return "", false
	}
	normalized, _ := NormalizeUnit(r)
	return key, key.AcceptsUnit(normalized.Unit)
}

// NormalizeUnit converts kJ to kcal and canonicalizes unit spellings.
// converted reports whether the value was changed by a kJ conversion.
func NormalizeUnit(r domain.NutrientReading) (out domain.NutrientReading, converted bool) {
	out = r
	unit := strings.ToLower(strings.TrimSpace(r.Unit))

	switch {
	case unit == unitKJ:
		out.Value = round2(r.Value / kjPerKcal)
		out.Unit = unitKcal
		return out, true
	case microgramSpellings[unit]:
		out.Unit = unitMicrogram
	case unit == unitKcal || unit == unitGram || unit == unitMilligram || unit == unitMl:
		out.Unit = unit
	}

	return out, false
}

// round2 rounds half away from zero to two decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
