package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gizibunda/backend/internal/domain"
	"github.com/gizibunda/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	serviceName    = "gizibunda-backend"
	serviceVersion = "1.0.0"
	dateLayout     = "2006-01-02"
)

// NutritionAnalyzer runs the ingredient analysis pipeline
type NutritionAnalyzer interface {
	AnalyzeNutrition(ctx context.Context, lines []string) (*domain.Analysis, error)
}

// MealLogger records analyzed meals and reports daily progress
type MealLogger interface {
	LogMeal(ctx context.Context, req usecase.MealLogRequest) (*domain.MealEntry, error)
	GetDailyLog(ctx context.Context, userID, date string) (*domain.DailyLog, error)
	GetProgress(ctx context.Context, userID, date string, profile domain.MotherProfile) (*domain.DailyProgress, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	nutrition NutritionAnalyzer
	meals     MealLogger
	now       func() time.Time
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. Either service may be nil, in which
// case its endpoints answer 503.
func NewHandler(nutrition NutritionAnalyzer, meals MealLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		nutrition: nutrition,
		meals:     meals,
		now:       time.Now,
		logger:    logger.Named("http"),
	}
}

// AnalyzeRequest is the body of POST /api/v1/nutrition/analyze
type AnalyzeRequest struct {
	Ingredients []string `json:"ingredients"`
	// Optional: log the summary as a recipe meal for this user
	UserID   string `json:"user_id,omitempty"`
	Date     string `json:"date,omitempty"`
	SourceID string `json:"source_id,omitempty"`
}

// AnalyzeResponse wraps the analysis and the meal entry when one was logged.
// A meal that could not be logged leaves Meal empty and sets MealError.
type AnalyzeResponse struct {
	*domain.Analysis
	Meal      *domain.MealEntry `json:"meal,omitempty"`
	MealError string            `json:"meal_error,omitempty"`
}

// ProfileRequest is the JSON form of a mother profile
type ProfileRequest struct {
	Weight         float64 `json:"weight"`
	Height         float64 `json:"height"`
	Birthdate      string  `json:"birthdate"` // YYYY-MM-DD
	ActivityLevel  string  `json:"activity_level"`
	GestationalAge int     `json:"gestational_age"`
}

// LogMealRequest is the body of POST /api/v1/meal-logs
type LogMealRequest struct {
	UserID           string                  `json:"user_id"`
	Date             string                  `json:"date,omitempty"`
	Source           domain.MealSource       `json:"source"`
	SourceID         string                  `json:"source_id,omitempty"`
	NutritionSummary domain.NutritionSummary `json:"nutrition_summary"`
}

// ProgressRequest is the body of POST /api/v1/meal-logs/:userId/progress
type ProgressRequest struct {
	Date    string         `json:"date,omitempty"`
	Profile ProfileRequest `json:"profile"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// AnalyzeNutrition handles ingredient list analysis requests
func (h *Handler) AnalyzeNutrition(c *gin.Context) {
	if h.nutrition == nil {
		h.notConfigured(c, "nutrition analysis")
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	analysis, err := h.nutrition.AnalyzeNutrition(c.Request.Context(), req.Ingredients)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := AnalyzeResponse{Analysis: analysis}
	if strings.TrimSpace(req.UserID) != "" && h.meals != nil {
		entry, err := h.meals.LogMeal(c.Request.Context(), usecase.MealLogRequest{
			UserID:   req.UserID,
			Date:     req.Date,
			Source:   domain.MealSourceRecipe,
			SourceID: req.SourceID,
			Summary:  analysis.NutritionSummary,
		})
		if err != nil {
			h.logger.Warn("analysis succeeded but meal was not logged",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			resp.MealError = "meal was not logged"
			if status, _ := statusFor(err); status != http.StatusInternalServerError {
				resp.MealError = err.Error()
			}
		} else {
			resp.Meal = entry
		}
	}

	c.JSON(http.StatusOK, resp)
}

// CalculateTargets returns the daily intake target for a profile
func (h *Handler) CalculateTargets(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	profile, err := req.toDomain()
	if err != nil {
		h.respondError(c, err)
		return
	}

	target, err := usecase.CalculateDailyTarget(profile, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, target)
}

// LogMeal adds an analyzed meal to the user's daily log
func (h *Handler) LogMeal(c *gin.Context) {
	if h.meals == nil {
		h.notConfigured(c, "meal log")
		return
	}

	var req LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	entry, err := h.meals.LogMeal(c.Request.Context(), usecase.MealLogRequest{
		UserID:   req.UserID,
		Date:     req.Date,
		Source:   req.Source,
		SourceID: req.SourceID,
		Summary:  req.NutritionSummary,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetDailyLog returns one day of a user's meal log
func (h *Handler) GetDailyLog(c *gin.Context) {
	if h.meals == nil {
		h.notConfigured(c, "meal log")
		return
	}

	log, err := h.meals.GetDailyLog(c.Request.Context(), c.Param("userId"), c.Query("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

// GetProgress compares a user's intake on a day with the profile's target
func (h *Handler) GetProgress(c *gin.Context) {
	if h.meals == nil {
		h.notConfigured(c, "meal log")
		return
	}

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	profile, err := req.Profile.toDomain()
	if err != nil {
		h.respondError(c, err)
		return
	}

	progress, err := h.meals.GetProgress(c.Request.Context(), c.Param("userId"), req.Date, profile)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (r ProfileRequest) toDomain() (domain.MotherProfile, error) {
	birthdate, err := time.Parse(dateLayout, strings.TrimSpace(r.Birthdate))
	if err != nil {
		return domain.MotherProfile{}, fmt.Errorf("%w: birthdate must be YYYY-MM-DD, got %q", domain.ErrInvalidInput, r.Birthdate)
	}
	return domain.MotherProfile{
		WeightKg:            r.Weight,
		HeightCm:            r.Height,
		Birthdate:           birthdate,
		ActivityLevel:       domain.ActivityLevel(r.ActivityLevel),
		GestationalAgeWeeks: r.GestationalAge,
	}, nil
}

// statusFor maps domain errors onto HTTP status codes and error codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrInterpretation):
		return http.StatusBadGateway, "INTERPRETATION_FAILED"
	case errors.Is(err, domain.ErrMealLogNotFound), errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	_ = c.Error(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "internal server error"
	}

	c.JSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}

func (h *Handler) notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": feature + " is not configured",
		"code":  "NOT_CONFIGURED",
	})
}
