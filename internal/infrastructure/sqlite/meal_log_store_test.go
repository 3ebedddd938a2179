package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMeal_AccumulatesDailyTotals(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	require.NoError(t, storage.AddMeal(ctx, &domain.MealEntry{
		ID:        "meal-1",
		UserID:    "user-1",
		Date:      "2026-03-01",
		Source:    domain.MealSourceRecipe,
		Totals:    map[domain.NutrientKey]float64{domain.Protein: 18.3, domain.Calories: 201},
		CreatedAt: created,
	}))
	require.NoError(t, storage.AddMeal(ctx, &domain.MealEntry{
		ID:        "meal-2",
		UserID:    "user-1",
		Date:      "2026-03-01",
		Source:    domain.MealSourceBarcode,
		SourceID:  "8991234567890",
		Totals:    map[domain.NutrientKey]float64{domain.Protein: 1.7, domain.Iron: 2.5},
		CreatedAt: created.Add(time.Hour),
	}))
	// another day must not leak in
	require.NoError(t, storage.AddMeal(ctx, &domain.MealEntry{
		ID:        "meal-3",
		UserID:    "user-1",
		Date:      "2026-03-02",
		Source:    domain.MealSourceManual,
		Totals:    map[domain.NutrientKey]float64{domain.Protein: 100},
		CreatedAt: created.Add(24 * time.Hour),
	}))

	day, err := storage.GetDay(ctx, "user-1", "2026-03-01")
	require.NoError(t, err)

	assert.InDelta(t, 20.0, day.Totals[domain.Protein], 1e-9)
	assert.Equal(t, 201.0, day.Totals[domain.Calories])
	assert.Equal(t, 2.5, day.Totals[domain.Iron])
	require.Len(t, day.Meals, 2)
	assert.Equal(t, "meal-1", day.Meals[0].ID)
	assert.Equal(t, domain.MealSourceBarcode, day.Meals[1].Source)
	assert.Equal(t, "8991234567890", day.Meals[1].SourceID)
	assert.True(t, day.Meals[0].CreatedAt.Equal(created))
}

func TestGetDay_NotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetDay(context.Background(), "nobody", "2026-03-01")
	assert.ErrorIs(t, err, domain.ErrMealLogNotFound)
}

func TestAddMeal_DuplicateIDRollsBack(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	entry := &domain.MealEntry{
		ID:        "meal-1",
		UserID:    "user-1",
		Date:      "2026-03-01",
		Source:    domain.MealSourceManual,
		Totals:    map[domain.NutrientKey]float64{domain.Protein: 10},
		CreatedAt: time.Now(),
	}
	require.NoError(t, storage.AddMeal(ctx, entry))
	assert.Error(t, storage.AddMeal(ctx, entry))

	day, err := storage.GetDay(ctx, "user-1", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 10.0, day.Totals[domain.Protein])
}
