package usda

import (
	"strings"

	"github.com/gizibunda/backend/internal/domain"
)

// MapToReadings converts a USDA food into raw per-100g readings tagged REMOTE.
// Nutrients without a name are dropped; values are left unscaled.
func MapToReadings(food *domain.USDAFood) []domain.NutrientReading {
	if food == nil {
		return nil
	}

	readings := make([]domain.NutrientReading, 0, len(food.Nutrients))
	for _, n := range food.Nutrients {
		name := strings.TrimSpace(n.NutrientName)
		if name == "" {
			continue
		}
		readings = append(readings, domain.NutrientReading{
			Nutrient: name,
			Value:    n.Value,
			Unit:     strings.TrimSpace(n.UnitName),
			Source:   domain.SourceRemote,
		})
	}

	return readings
}

// HasNutrients reports whether a search hit carries inline nutrient data.
// Hits without it need a GetFoodDetails call.
func HasNutrients(food *domain.USDAFood) bool {
	return food != nil && len(food.Nutrients) > 0
}
