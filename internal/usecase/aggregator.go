package usecase

import (
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"go.uber.org/zap"
)

// Aggregator folds resolved ingredients into an Analysis
type Aggregator struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewAggregator creates an aggregator over the given normalizer
func NewAggregator(normalizer *Normalizer, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{normalizer: normalizer, logger: logger.Named("aggregator")}
}

// readingRank orders the readings of one key within an ingredient. Only
// readings of the best rank present are summed.
type readingRank int

const (
	rankNative readingRank = iota
	rankConverted
	rankFallback
	rankFallbackConverted
)

// ingredientTotal accumulates one key within a single ingredient
type ingredientTotal struct {
	rank   readingRank
	value  float64
	source domain.Source
}

// Aggregate normalizes and sums readings per ingredient, then sums across
// ingredients. Keys that no ingredient reported stay unavailable.
func (a *Aggregator) Aggregate(resolved []domain.ResolvedIngredient, at time.Time) domain.Analysis {
	analysis := domain.Analysis{
		Ingredients: make([]domain.AnalyzedIngredient, 0, len(resolved)),
		NutritionSummary: domain.NutritionSummary{
			Totals: make(map[domain.NutrientKey]domain.NutrientTotal),
			Date:   at.UTC(),
		},
	}

	for _, ing := range resolved {
		nutrients := a.normalizeIngredient(ing)

		for _, n := range nutrients {
			total := analysis.NutritionSummary.Totals[n.Key]
			total.Value += n.Value
			total.Available = true
			analysis.NutritionSummary.Totals[n.Key] = total
		}

		analysis.Ingredients = append(analysis.Ingredients, domain.AnalyzedIngredient{
			Name:      ing.Parsed.NameLocal,
			NameEn:    ing.Parsed.NameCanonical,
			Quantity:  ing.Parsed.Quantity,
			Unit:      ing.Parsed.Unit,
			Nutrients: nutrients,
		})
	}

	return analysis
}

// normalizeIngredient returns one NormalizedNutrient per key in canonical key
// order, always in the key's canonical unit. Readings in any other unit are
// dropped. Duplicate readings for a key are summed, but only within the best
// rank present: native values beat values converted from kJ, and alias
// labels beat fallback labels, since both describe the same quantity.
func (a *Aggregator) normalizeIngredient(ing domain.ResolvedIngredient) []domain.NormalizedNutrient {
	totals := make(map[domain.NutrientKey]*ingredientTotal)

	for _, raw := range ing.Readings {
		key, fallback, ok := a.normalizer.classify(raw.Nutrient)
		if !ok {
			continue
		}
		reading, wasConverted := NormalizeUnit(raw)
		if !key.AcceptsUnit(reading.Unit) {
			a.logger.Debug("reading unit does not match nutrient unit, dropped",
				zap.String("ingredient", ing.Parsed.NameLocal),
				zap.String("nutrient", raw.Nutrient),
				zap.String("key", string(key)),
				zap.String("unit", raw.Unit),
				zap.String("want_unit", key.Unit()),
			)
			continue
		}

		rank := rankNative
		switch {
		case fallback && wasConverted:
			rank = rankFallbackConverted
		case fallback:
			rank = rankFallback
		case wasConverted:
			rank = rankConverted
		}

		t, exists := totals[key]
		switch {
		case !exists || rank < t.rank:
			totals[key] = &ingredientTotal{rank: rank, value: reading.Value, source: reading.Source}
		case rank == t.rank:
			t.value += reading.Value
		}
	}

	nutrients := make([]domain.NormalizedNutrient, 0, len(totals))
	for _, key := range domain.AllNutrientKeys {
		t, ok := totals[key]
		if !ok {
			continue
		}
		nutrients = append(nutrients, domain.NormalizedNutrient{
			Key:    key,
			Value:  round2(t.value),
			Unit:   key.Unit(),
			Source: t.source,
		})
	}

	return nutrients
}
