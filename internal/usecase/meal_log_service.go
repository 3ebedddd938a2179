package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// MealLogRequest is one meal to add to a user's daily log
type MealLogRequest struct {
	UserID   string
	Date     string // YYYY-MM-DD, defaults to today (UTC)
	Source   domain.MealSource
	SourceID string
	Summary  domain.NutritionSummary
}

// MealLogService accumulates analyzed meals into per-day totals
type MealLogService struct {
	repo   domain.MealLogRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewMealLogService creates a meal log service
func NewMealLogService(repo domain.MealLogRepository, logger *zap.Logger) *MealLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealLogService{
		repo:   repo,
		now:    time.Now,
		logger: logger.Named("meallog"),
	}
}

// LogMeal adds the available totals of a summary to the user's day.
// Unavailable nutrients are skipped rather than counted as zero.
func (s *MealLogService) LogMeal(ctx context.Context, req MealLogRequest) (*domain.MealEntry, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if !req.Source.IsValid() {
		return nil, fmt.Errorf("%w: unknown meal source %q", domain.ErrInvalidInput, req.Source)
	}

	now := s.now().UTC()
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}

	totals := make(map[domain.NutrientKey]float64)
	for _, key := range domain.AllNutrientKeys {
		v, ok := req.Summary.Value(key)
		if !ok {
			continue
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s must be a non-negative number, got %v", domain.ErrInvalidInput, key, v)
		}
		totals[key] = v
	}

	entry := &domain.MealEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      date,
		Source:    req.Source,
		SourceID:  strings.TrimSpace(req.SourceID),
		Totals:    totals,
		CreatedAt: now,
	}

	if err := s.repo.AddMeal(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to log meal: %w", err)
	}

	s.logger.Info("meal logged",
		zap.String("user_id", userID),
		zap.String("date", date),
		zap.String("source", string(req.Source)),
		zap.Int("nutrients", len(totals)),
	)

	return entry, nil
}

// GetDailyLog returns the accumulated log of one day
func (s *MealLogService) GetDailyLog(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	day, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDay(ctx, userID, day)
}

// GetProgress compares a day's intake with the profile's daily target.
// A day without meals counts as zero intake. Remaining is target minus
// intake and goes negative when the target is exceeded.
func (s *MealLogService) GetProgress(ctx context.Context, userID, date string, profile domain.MotherProfile) (*domain.DailyProgress, error) {
	target, err := CalculateDailyTarget(profile, s.now())
	if err != nil {
		return nil, err
	}

	log, err := s.GetDailyLog(ctx, userID, date)
	if errors.Is(err, domain.ErrMealLogNotFound) {
		day, _ := s.resolveDate(date)
		log = &domain.DailyLog{
			UserID: strings.TrimSpace(userID),
			Date:   day,
			Totals: map[domain.NutrientKey]float64{},
			Meals:  []domain.MealEntry{},
		}
	} else if err != nil {
		return nil, err
	}

	remaining := make(map[domain.NutrientKey]float64, len(target.Targets))
	for key, goal := range target.Targets {
		remaining[key] = round2(goal - log.Totals[key])
	}

	return &domain.DailyProgress{Log: log, Target: target, Remaining: remaining}, nil
}

func (s *MealLogService) resolveDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now().UTC().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", domain.ErrInvalidInput, date)
	}
	return date, nil
}
