package sqlite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gizibunda/backend/internal/domain"
)

const defaultSearchLimit = 5

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns up to limit composition rows whose food name contains name
// (case-insensitive), shortest food names first.
func (s *Storage) Search(ctx context.Context, name string, limit int) ([]domain.CompositionRow, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := `
        SELECT fdc_id, food, nutrient, amount, unit
        FROM food_nutrients
        WHERE LOWER(food) LIKE '%' || ? || '%' ESCAPE '\'
        ORDER BY LENGTH(food) ASC, food ASC, id ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, query, likeEscaper.Replace(name), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query food nutrients: %w", err)
	}
	defer rows.Close()

	var result []domain.CompositionRow
	for rows.Next() {
		var row domain.CompositionRow
		if err := rows.Scan(&row.FdcID, &row.Food, &row.Nutrient, &row.Amount, &row.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan food nutrient: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// InsertRows adds composition rows in a single transaction
func (s *Storage) InsertRows(ctx context.Context, rows []domain.CompositionRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO food_nutrients (fdc_id, food, nutrient, amount, unit)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.FdcID, row.Food, row.Nutrient, row.Amount, row.Unit); err != nil {
			return fmt.Errorf("failed to insert food nutrient %q/%q: %w", row.Food, row.Nutrient, err)
		}
	}

	return tx.Commit()
}

// CountRows returns the number of composition rows
func (s *Storage) CountRows(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM food_nutrients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count food nutrients: %w", err)
	}
	return n, nil
}

// ImportCSV loads composition rows from CSV with a header naming the columns
// Food, Nutrient, Amount, Unit and optionally fdc_id (any order, any case).
// Rows with a blank or unparsable amount are skipped. Returns rows imported.
func (s *Storage) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: empty composition CSV", domain.ErrInvalidInput)
		}
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"food", "nutrient", "amount", "unit"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("%w: composition CSV missing %q column", domain.ErrInvalidInput, required)
		}
	}
	fdcCol, hasFdc := cols["fdc_id"]

	field := func(record []string, idx int) string {
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []domain.CompositionRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read CSV record: %w", err)
		}

		food := field(record, cols["food"])
		nutrient := field(record, cols["nutrient"])
		amount, err := strconv.ParseFloat(field(record, cols["amount"]), 64)
		if food == "" || nutrient == "" || err != nil {
			continue
		}

		row := domain.CompositionRow{
			Food:     food,
			Nutrient: nutrient,
			Amount:   amount,
			Unit:     field(record, cols["unit"]),
		}
		if hasFdc {
			row.FdcID, _ = strconv.ParseInt(field(record, fdcCol), 10, 64)
		}
		rows = append(rows, row)
	}

	if err := s.InsertRows(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
