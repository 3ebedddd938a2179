package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSearch_OrdersShortestFirst(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.InsertRows(ctx, []domain.CompositionRow{
		{Food: "Tempe kedelai murni, goreng", Nutrient: "Protein", Amount: 20.0, Unit: "g"},
		{Food: "Tempe", Nutrient: "Protein", Amount: 18.3, Unit: "g"},
		{Food: "Tempe", Nutrient: "Lemak", Amount: 4.0, Unit: "g"},
		{Food: "Tahu", Nutrient: "Protein", Amount: 10.9, Unit: "g"},
	}))

	rows, err := storage.Search(ctx, "TEMPE", 5)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Tempe", rows[0].Food)
	assert.Equal(t, 18.3, rows[0].Amount) // same food: insertion order
	assert.Equal(t, "Tempe", rows[1].Food)
	assert.Equal(t, "Lemak", rows[1].Nutrient)
	assert.Equal(t, "Tempe kedelai murni, goreng", rows[2].Food)
}

func TestSearch_Limit(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	var rows []domain.CompositionRow
	for i := 0; i < 8; i++ {
		rows = append(rows, domain.CompositionRow{Food: "Nasi putih", Nutrient: "Energi", Amount: float64(i), Unit: "kcal"})
	}
	require.NoError(t, storage.InsertRows(ctx, rows))

	got, err := storage.Search(ctx, "nasi", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = storage.Search(ctx, "nasi", 0)
	require.NoError(t, err)
	assert.Len(t, got, 5, "non-positive limit falls back to 5")
}

func TestSearch_NoMatchAndBlank(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.InsertRows(ctx, []domain.CompositionRow{
		{Food: "Tahu", Nutrient: "Protein", Amount: 10.9, Unit: "g"},
	}))

	got, err := storage.Search(ctx, "rendang", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = storage.Search(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_EscapesWildcards(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.InsertRows(ctx, []domain.CompositionRow{
		{Food: "Susu 100% sapi", Nutrient: "Protein", Amount: 3.2, Unit: "g"},
		{Food: "Susu kental", Nutrient: "Protein", Amount: 8.2, Unit: "g"},
	}))

	got, err := storage.Search(ctx, "100%", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Susu 100% sapi", got[0].Food)

	got, err = storage.Search(ctx, "susu_", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImportCSV(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	data := "\ufeffFood,Nutrient,Amount,Unit,fdc_id\n" +
		"Tempe,Protein,18.3,g,1001\n" +
		"Tempe,Energi,201,kcal,1001\n" +
		"Tempe,Serat,,g,1001\n" +
		",Protein,1,g,\n"

	n, err := storage.ImportCSV(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := storage.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := storage.Search(ctx, "tempe", 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1001), rows[0].FdcID)
}

func TestImportCSV_MissingColumn(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.ImportCSV(context.Background(), strings.NewReader("Food,Nutrient,Amount\nTempe,Protein,18.3\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = storage.ImportCSV(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
