package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string) (*USDASearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID string) (*USDAFood, error)
}

// CompositionStore is the local food composition dataset
type CompositionStore interface {
	// Search returns up to limit rows whose food name contains name
	// (case-insensitive), most specific (shortest) food names first.
	Search(ctx context.Context, name string, limit int) ([]CompositionRow, error)
}

// TextOracle turns a prompt into free-form text
type TextOracle interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// MealLogRepository persists per-day nutrient accumulation
type MealLogRepository interface {
	AddMeal(ctx context.Context, entry *MealEntry) error
	GetDay(ctx context.Context, userID, date string) (*DailyLog, error)
}
