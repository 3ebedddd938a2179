package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/gizibunda/backend/internal/infrastructure/usda"
	"go.uber.org/zap"
)

// Fallback modes for the remote lookup
const (
	// FallbackIngredient queries the remote source only when local data yields no tracked reading
	FallbackIngredient = "ingredient"
	// FallbackNutrient queries the remote source for every key local data did not cover
	FallbackNutrient = "nutrient"
)

const (
	defaultLocalTopK = 5
	defaultCacheTTL  = 720 * time.Hour // 30 days
	cacheKeyPrefix   = "composition:usda:"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
	// characters that make the USDA search proxy reject a query
	specialCharsRegex = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~` + "`" + `]`)
)

// ResolverConfig holds configuration for the composition resolver
type ResolverConfig struct {
	LocalTopK    int
	FallbackMode string
	CacheTTL     time.Duration
}

// Resolver finds nutrient readings for one ingredient, first in the local
// composition store and then in the USDA database. It never fails: every
// source error degrades to "no readings from that source".
type Resolver struct {
	local        domain.CompositionStore
	remote       domain.USDAClient
	cache        domain.CacheRepository
	matcher      *MatchingService
	preprocessor *QueryPreprocessor
	normalizer   *Normalizer
	topK         int
	fallbackMode string
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewResolver creates a resolver. local, remote and cache may be nil.
func NewResolver(
	local domain.CompositionStore,
	remote domain.USDAClient,
	cache domain.CacheRepository,
	matcher *MatchingService,
	normalizer *Normalizer,
	config ResolverConfig,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = NewMatchingService(MatchConfig{}, logger)
	}
	if normalizer == nil {
		normalizer = MustNewNormalizer(domain.DefaultNutrientAliases)
	}

	topK := config.LocalTopK
	if topK <= 0 {
		topK = defaultLocalTopK
	}
	mode := config.FallbackMode
	if mode != FallbackNutrient {
		mode = FallbackIngredient
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Resolver{
		local:        local,
		remote:       remote,
		cache:        cache,
		matcher:      matcher,
		preprocessor: NewQueryPreprocessor(logger),
		normalizer:   normalizer,
		topK:         topK,
		fallbackMode: mode,
		cacheTTL:     cacheTTL,
		logger:       logger.Named("resolver"),
	}
}

// Resolve returns the tracked readings for one ingredient, scaled to its quantity.
func (r *Resolver) Resolve(ctx context.Context, ing domain.ParsedIngredient) []domain.NutrientReading {
	readings := r.resolveLocal(ctx, ing)

	covered := make(map[domain.NutrientKey]bool)
	for _, reading := range readings {
		key, _ := r.normalizer.Track(reading)
		covered[key] = true
	}

	switch r.fallbackMode {
	case FallbackNutrient:
		if len(covered) == len(domain.AllNutrientKeys) {
			return readings
		}
		for _, reading := range r.resolveRemote(ctx, ing) {
			key, _ := r.normalizer.Track(reading)
			if !covered[key] {
				readings = append(readings, reading)
			}
		}
	default:
		if len(readings) == 0 {
			readings = r.resolveRemote(ctx, ing)
		}
	}

	return readings
}

// resolveLocal searches the local store by the Indonesian name. The top K
// rows are taken before filtering to tracked nutrients.
func (r *Resolver) resolveLocal(ctx context.Context, ing domain.ParsedIngredient) []domain.NutrientReading {
	if r.local == nil {
		return nil
	}

	name := ing.NameLocal
	if name == "" {
		name = ing.NameCanonical
	}

	rows, err := r.local.Search(ctx, name, r.topK)
	if err != nil {
		r.logger.Warn("local composition lookup failed", zap.String("name", name), zap.Error(err))
		return nil
	}

	readings := make([]domain.NutrientReading, 0, len(rows))
	for _, row := range rows {
		reading := domain.NutrientReading{
			Nutrient: row.Nutrient,
			Value:    scaleToQuantity(row.Amount, ing.Quantity),
			Unit:     row.Unit,
			Source:   domain.SourceLocal,
		}
		if _, ok := r.normalizer.Track(reading); ok {
			readings = append(readings, reading)
		}
	}

	r.logger.Debug("local lookup", zap.String("name", name), zap.Int("rows", len(rows)), zap.Int("tracked", len(readings)))
	return readings
}

// resolveRemote searches USDA by the English name and keeps the best
// candidate only when it is similar enough.
func (r *Resolver) resolveRemote(ctx context.Context, ing domain.ParsedIngredient) []domain.NutrientReading {
	if r.remote == nil {
		return nil
	}

	name := ing.NameCanonical
	if name == "" {
		name = ing.NameLocal
	}
	query := r.preprocessor.PreprocessQuery(name)
	if query == "" {
		return nil
	}

	food, err := r.lookupRemote(ctx, query)
	if err != nil {
		r.logger.Warn("remote composition lookup degraded",
			zap.String("name", name),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}

	var readings []domain.NutrientReading
	for _, reading := range usda.MapToReadings(food) {
		if _, ok := r.normalizer.Track(reading); !ok {
			continue
		}
		reading.Value = scaleToQuantity(reading.Value, ing.Quantity)
		readings = append(readings, reading)
	}

	return readings
}

// lookupRemote returns the selected USDA food for a query.
// Flow: check cache -> search USDA -> match best result -> fetch details if needed -> cache
func (r *Resolver) lookupRemote(ctx context.Context, query string) (*domain.USDAFood, error) {
	cacheKey := cacheKeyPrefix + normalizeForCacheKey(query)

	if food, ok := r.getFromCache(ctx, cacheKey); ok {
		return food, nil
	}

	searchQuery := buildSearchQuery(query)
	searchResult, err := r.remote.SearchFoods(ctx, searchQuery)
	if errors.Is(err, domain.ErrProductNotFound) {
		// retry once with only the most important words
		keywords := r.preprocessor.ExtractFoodKeywords(searchQuery)
		if len(keywords) > 2 {
			keywords = keywords[:2]
		}
		if narrowed := strings.Join(keywords, " "); narrowed != "" && narrowed != searchQuery {
			searchResult, err = r.remote.SearchFoods(ctx, narrowed)
		}
	}
	if err != nil {
		return nil, err
	}

	match, err := r.matcher.FindBestMatch(ctx, query, searchResult.Foods)
	if err != nil {
		if errors.Is(err, domain.ErrLowConfidence) && match != nil {
			return nil, fmt.Errorf("%w: best candidate %q scored %.2f", err, match.Description, match.Similarity)
		}
		return nil, err
	}

	var food *domain.USDAFood
	for i := range searchResult.Foods {
		if searchResult.Foods[i].FdcID == match.FdcID {
			food = &searchResult.Foods[i]
			break
		}
	}
	if food == nil {
		return nil, domain.ErrProductNotFound
	}

	if !usda.HasNutrients(food) {
		food, err = r.remote.GetFoodDetails(ctx, strconv.Itoa(match.FdcID))
		if err != nil {
			return nil, err
		}
	}

	r.logger.Debug("remote match selected",
		zap.String("query", query),
		zap.Int("fdc_id", match.FdcID),
		zap.String("description", match.Description),
		zap.Float64("similarity", match.Similarity),
	)

	r.setInCache(ctx, cacheKey, food)
	return food, nil
}

func (r *Resolver) getFromCache(ctx context.Context, key string) (*domain.USDAFood, bool) {
	if r.cache == nil {
		return nil, false
	}

	data, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var food domain.USDAFood
	if err := json.Unmarshal(data, &food); err != nil {
		r.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = r.cache.Delete(ctx, key)
		return nil, false
	}
	return &food, true
}

func (r *Resolver) setInCache(ctx context.Context, key string, food *domain.USDAFood) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(food)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// scaleToQuantity converts a per-100 g (or ml) amount to the ingredient quantity
func scaleToQuantity(per100, quantity float64) float64 {
	return round2(per100 * quantity / 100)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes special characters, and trims whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// buildSearchQuery sanitizes characters that break the USDA search endpoint
func buildSearchQuery(query string) string {
	query = strings.ReplaceAll(query, "&", " and ")
	query = specialCharsRegex.ReplaceAllString(query, " ")
	query = multipleSpacesRegex.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}
