package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 4

// IngredientInterpreter turns free-text lines into structured ingredients
type IngredientInterpreter interface {
	Interpret(ctx context.Context, lines []string) ([]domain.ParsedIngredient, error)
}

// CompositionResolver finds the readings of a single ingredient; it never fails
type CompositionResolver interface {
	Resolve(ctx context.Context, ing domain.ParsedIngredient) []domain.NutrientReading
}

// NutritionServiceConfig holds configuration for the nutrition service
type NutritionServiceConfig struct {
	// MaxConcurrency bounds per-ingredient resolution; 1 resolves sequentially
	MaxConcurrency int
}

// NutritionService runs the analysis pipeline:
// interpret -> resolve (fan-out) -> normalize and aggregate
type NutritionService struct {
	interpreter    IngredientInterpreter
	resolver       CompositionResolver
	aggregator     *Aggregator
	maxConcurrency int
	now            func() time.Time
	logger         *zap.Logger
}

// NewNutritionService creates a new nutrition service with dependencies
func NewNutritionService(
	interpreter IngredientInterpreter,
	resolver CompositionResolver,
	aggregator *Aggregator,
	config NutritionServiceConfig,
	logger *zap.Logger,
) *NutritionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if aggregator == nil {
		aggregator = NewAggregator(MustNewNormalizer(domain.DefaultNutrientAliases), logger)
	}

	concurrency := config.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultMaxConcurrency
	}

	return &NutritionService{
		interpreter:    interpreter,
		resolver:       resolver,
		aggregator:     aggregator,
		maxConcurrency: concurrency,
		now:            time.Now,
		logger:         logger.Named("nutrition"),
	}
}

// AnalyzeNutrition interprets the ingredient lines, resolves each ingredient
// and returns the per-ingredient nutrients with the aggregated summary.
// Ingredient order in the result mirrors the interpreter's order.
func (s *NutritionService) AnalyzeNutrition(ctx context.Context, lines []string) (*domain.Analysis, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: ingredients must be a non-empty list", domain.ErrInvalidInput)
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return nil, fmt.Errorf("%w: ingredient %d is blank", domain.ErrInvalidInput, i)
		}
	}

	start := time.Now()

	parsed, err := s.interpreter.Interpret(ctx, lines)
	if err != nil {
		return nil, err
	}

	resolved := make([]domain.ResolvedIngredient, len(parsed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i := range parsed {
		i := i
		g.Go(func() error {
			resolved[i] = domain.ResolvedIngredient{
				Parsed:   parsed[i],
				Readings: s.resolver.Resolve(gctx, parsed[i]),
			}
			return nil
		})
	}
	// resolution degrades instead of failing, so Wait only reports cancellation
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := s.aggregator.Aggregate(resolved, s.now())

	s.logger.Info("nutrition analyzed",
		zap.Int("lines", len(lines)),
		zap.Int("ingredients", len(parsed)),
		zap.Duration("latency", time.Since(start)),
	)

	return &analysis, nil
}
