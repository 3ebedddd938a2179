package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gizibunda/backend/internal/domain"
)

// AddMeal stores the entry and adds its totals to the user's daily totals atomically
func (s *Storage) AddMeal(ctx context.Context, entry *domain.MealEntry) error {
	totals, err := json.Marshal(entry.Totals)
	if err != nil {
		return fmt.Errorf("failed to encode meal totals: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO meal_entries (id, user_id, date, source, source_id, totals, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.UserID, entry.Date, string(entry.Source), entry.SourceID,
		string(totals), entry.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert meal entry: %w", err)
	}

	for key, value := range entry.Totals {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO daily_totals (user_id, date, nutrient, total)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(user_id, date, nutrient) DO UPDATE SET total = total + excluded.total
        `, entry.UserID, entry.Date, string(key), value)
		if err != nil {
			return fmt.Errorf("failed to update daily total %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// GetDay returns the accumulated log of one user on one date (YYYY-MM-DD)
func (s *Storage) GetDay(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	meals, err := s.mealsOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("%w: user %s on %s", domain.ErrMealLogNotFound, userID, date)
	}

	totals, err := s.totalsOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return &domain.DailyLog{
		UserID: userID,
		Date:   date,
		Totals: totals,
		Meals:  meals,
	}, nil
}

func (s *Storage) mealsOn(ctx context.Context, userID, date string) ([]domain.MealEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, source, source_id, totals, created_at
        FROM meal_entries
        WHERE user_id = ? AND date = ?
        ORDER BY created_at ASC, id ASC
    `, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal entries: %w", err)
	}
	defer rows.Close()

	var meals []domain.MealEntry
	for rows.Next() {
		var (
			meal       domain.MealEntry
			source     string
			totalsJSON string
			createdAt  string
		)
		if err := rows.Scan(&meal.ID, &source, &meal.SourceID, &totalsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(totalsJSON), &meal.Totals); err != nil {
			return nil, fmt.Errorf("failed to decode meal totals: %w", err)
		}
		meal.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse meal timestamp: %w", err)
		}
		meal.UserID = userID
		meal.Date = date
		meal.Source = domain.MealSource(source)
		meals = append(meals, meal)
	}

	return meals, rows.Err()
}

func (s *Storage) totalsOn(ctx context.Context, userID, date string) (map[domain.NutrientKey]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT nutrient, total
        FROM daily_totals
        WHERE user_id = ? AND date = ?
    `, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[domain.NutrientKey]float64)
	for rows.Next() {
		var (
			nutrient string
			total    float64
		)
		if err := rows.Scan(&nutrient, &total); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals[domain.NutrientKey(nutrient)] = total
	}

	return totals, rows.Err()
}
