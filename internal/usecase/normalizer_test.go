package usecase

import (
	"testing"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Classify(t *testing.T) {
	n := MustNewNormalizer(domain.DefaultNutrientAliases)

	testCases := []struct {
		raw     string
		want    domain.NutrientKey
		tracked bool
	}{
		{"Energy", domain.Calories, true},
		{"Energi", domain.Calories, true},
		{"Energy (Atwater General Factors)", domain.Calories, true},
		{"Energy (Atwater Specific Factors)", "", false},
		{"Protein", domain.Protein, true},
		{"Total lipid (fat)", domain.Fat, true},
		{"Lemak", domain.Fat, true},
		{"Fatty acids, total saturated", "", false},
		{"Total fat (NLEA)", domain.Fat, true},
		{"Carbohydrate, by difference", domain.Carbs, true},
		{"Carbohydrate, other", "", false},
		{"Adjusted Protein", "", false},
		{"Fiber, total dietary", domain.Fiber, true},
		{"Sugars, total including NLEA", domain.Sugar, true},
		{"Sugars, added", domain.AddedSugar, true},
		{"Sodium, Na", domain.Sodium, true},
		{"Fiber, insoluble", "", false},
		{"Folate, total", domain.FolicAcid, true},
		{"Folate, food", "", false},
		{"Folate, DFE", "", false},
		{"Folic acid", domain.FolicAcid, true},
		{"Vitamin A, RAE", domain.VitaminA, true},
		{"Vitamin A, IU", "", false},
		{"Retinol", domain.VitaminA, true},
		{"Vitamin E, added", "", false},
		{"Vitamin B-12", domain.VitaminB12, true},
		{"Vitamin D (D2 + D3)", domain.VitaminD, true},
		{"Vitamin D (D2 + D3), International Units", "", false},
		{"Vitamin D3 (cholecalciferol)", domain.VitaminD, true},
		{"  WATER ", domain.Water, true},
		{"Caffeine", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			key, ok := n.Classify(tc.raw)
			assert.Equal(t, tc.tracked, ok)
			assert.Equal(t, tc.want, key)
		})
	}
}

func TestNormalizer_FallbackLabels(t *testing.T) {
	n := MustNewNormalizer(domain.DefaultNutrientAliases)

	testCases := []struct {
		raw      string
		want     domain.NutrientKey
		fallback bool
	}{
		{"Total lipid (fat)", domain.Fat, false},
		{"Total fat (NLEA)", domain.Fat, true},
		{"Sugars, Total", domain.Sugar, false},
		{"Sugars, total including NLEA", domain.Sugar, true},
		{"Folate, total", domain.FolicAcid, false},
		{"Folic acid", domain.FolicAcid, true},
		{"Vitamin D2 (ergocalciferol)", domain.VitaminD, true},
		{"Retinol (Vit. A)", domain.VitaminA, true},
		{"Total dietary fiber (AOAC 2011.25)", domain.Fiber, true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			key, fallback, ok := n.classify(tc.raw)
			require.True(t, ok)
			assert.Equal(t, tc.want, key)
			assert.Equal(t, tc.fallback, fallback)
		})
	}
}

func TestNormalizer_Track(t *testing.T) {
	n := MustNewNormalizer(domain.DefaultNutrientAliases)

	testCases := []struct {
		name    string
		in      domain.NutrientReading
		want    domain.NutrientKey
		tracked bool
	}{
		{"micrograms", domain.NutrientReading{Nutrient: "Vitamin D (D2 + D3)", Unit: "UG"}, domain.VitaminD, true},
		{"IU", domain.NutrientReading{Nutrient: "Vitamin D", Unit: "IU"}, domain.VitaminD, false},
		{"kJ energy", domain.NutrientReading{Nutrient: "Energy", Unit: "kJ"}, domain.Calories, true},
		{"water in grams", domain.NutrientReading{Nutrient: "Water", Unit: "G"}, domain.Water, true},
		{"no unit", domain.NutrientReading{Nutrient: "Protein"}, domain.Protein, false},
		{"untracked name", domain.NutrientReading{Nutrient: "Caffeine", Unit: "MG"}, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := n.Track(tc.in)
			assert.Equal(t, tc.tracked, ok)
			assert.Equal(t, tc.want, key)
		})
	}
}

func TestNormalizer_FirstMatchingKeyWins(t *testing.T) {
	n, err := NewNormalizer([]domain.NutrientAlias{
		{Key: domain.Protein, Aliases: []string{"protein"}},
		{Key: domain.Water, Aliases: []string{"water"}},
	})
	require.NoError(t, err)

	key, ok := n.Classify("protein water")
	assert.True(t, ok)
	assert.Equal(t, domain.Protein, key)
}

func TestNewNormalizer_RejectsInvalidTable(t *testing.T) {
	_, err := NewNormalizer([]domain.NutrientAlias{
		{Key: "caffeine", Aliases: []string{"caffeine"}},
	})
	assert.ErrorIs(t, err, domain.ErrAmbiguousAlias)

	assert.Panics(t, func() {
		MustNewNormalizer([]domain.NutrientAlias{{Key: domain.Protein}})
	})
}

func TestNormalizeUnit(t *testing.T) {
	testCases := []struct {
		name          string
		in            domain.NutrientReading
		wantValue     float64
		wantUnit      string
		wantConverted bool
	}{
		{
			name:          "kJ to kcal",
			in:            domain.NutrientReading{Nutrient: "Energy", Value: 418.4, Unit: "kJ"},
			wantValue:     100,
			wantUnit:      "kcal",
			wantConverted: true,
		},
		{
			name:          "kJ rounds to two decimals",
			in:            domain.NutrientReading{Nutrient: "Energy", Value: 100, Unit: "KJ"},
			wantValue:     23.9,
			wantUnit:      "kcal",
			wantConverted: true,
		},
		{
			name:      "kcal lowercased",
			in:        domain.NutrientReading{Nutrient: "Energy", Value: 52, Unit: "KCAL"},
			wantValue: 52,
			wantUnit:  "kcal",
		},
		{
			name:      "ug",
			in:        domain.NutrientReading{Nutrient: "Folate", Value: 5, Unit: "ug"},
			wantValue: 5,
			wantUnit:  "µg",
		},
		{
			name:      "mcg",
			in:        domain.NutrientReading{Nutrient: "Folate", Value: 5, Unit: "MCG"},
			wantValue: 5,
			wantUnit:  "µg",
		},
		{
			name:      "micro sign",
			in:        domain.NutrientReading{Nutrient: "Folate", Value: 5, Unit: "µg"},
			wantValue: 5,
			wantUnit:  "µg",
		},
		{
			name:      "greek mu",
			in:        domain.NutrientReading{Nutrient: "Folate", Value: 5, Unit: "μg"},
			wantValue: 5,
			wantUnit:  "µg",
		},
		{
			name:      "mg untouched",
			in:        domain.NutrientReading{Nutrient: "Iron", Value: 1.2, Unit: "mg"},
			wantValue: 1.2,
			wantUnit:  "mg",
		},
		{
			name:      "unknown unit passes through",
			in:        domain.NutrientReading{Nutrient: "Vitamin A", Value: 30, Unit: "IU"},
			wantValue: 30,
			wantUnit:  "IU",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, converted := NormalizeUnit(tc.in)
			assert.Equal(t, tc.wantConverted, converted)
			assert.InDelta(t, tc.wantValue, out.Value, 1e-9)
			assert.Equal(t, tc.wantUnit, out.Unit)
			assert.Equal(t, tc.in.Nutrient, out.Nutrient)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 14.0, round2(14.0))
	assert.Equal(t, 1.01, round2(1.005000001))
	assert.Equal(t, 23.9, round2(100/4.184))
	assert.Equal(t, -2.5, round2(-2.5))
}
