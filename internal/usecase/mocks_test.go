package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gizibunda/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockUSDAClient is a mock implementation of domain.USDAClient
type MockUSDAClient struct {
	mu           sync.Mutex
	searchResult *domain.USDASearchResponse
	searchError  error
	foodResult   *domain.USDAFood
	foodError    error
	queries      []string
	detailIDs    []string
}

func NewMockUSDAClient() *MockUSDAClient {
	return &MockUSDAClient{}
}

func (m *MockUSDAClient) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.searchError != nil {
		return nil, m.searchError
	}
	if m.searchResult == nil {
		return nil, domain.ErrProductNotFound
	}
	return m.searchResult, nil
}

func (m *MockUSDAClient) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailIDs = append(m.detailIDs, fdcID)
	if m.foodError != nil {
		return nil, m.foodError
	}
	return m.foodResult, nil
}

func (m *MockUSDAClient) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// MockCompositionStore is an in-memory domain.CompositionStore. Rows are
// returned in insertion order after a case-insensitive substring filter.
type MockCompositionStore struct {
	mu        sync.Mutex
	rows      []domain.CompositionRow
	err       error
	lastLimit int
}

func (m *MockCompositionStore) Search(ctx context.Context, name string, limit int) ([]domain.CompositionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CompositionRow
	for _, row := range m.rows {
		if strings.Contains(strings.ToLower(row.Food), strings.ToLower(name)) {
			out = append(out, row)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// MockTextOracle returns a canned reply and records the prompts it saw
type MockTextOracle struct {
	reply        string
	err          error
	calls        int
	systemPrompt string
	prompt       string
}

func (m *MockTextOracle) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	m.calls++
	m.systemPrompt = systemPrompt
	m.prompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// MockMealLogRepository keeps meal entries in memory
type MockMealLogRepository struct {
	entries []domain.MealEntry
	addErr  error
}

func (m *MockMealLogRepository) AddMeal(ctx context.Context, entry *domain.MealEntry) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MockMealLogRepository) GetDay(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	day := &domain.DailyLog{UserID: userID, Date: date, Totals: map[domain.NutrientKey]float64{}}
	for _, e := range m.entries {
		if e.UserID != userID || e.Date != date {
			continue
		}
		day.Meals = append(day.Meals, e)
		for k, v := range e.Totals {
			day.Totals[k] += v
		}
	}
	if len(day.Meals) == 0 {
		return nil, domain.ErrMealLogNotFound
	}
	return day, nil
}
