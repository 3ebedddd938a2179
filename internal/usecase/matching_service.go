package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/gizibunda/backend/internal/domain"
	"go.uber.org/zap"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Token weight categories for scoring
const (
	weightFood        = 3.0 // Core food terms (rice, chicken, tofu)
	weightDescriptive = 2.0 // Descriptive terms (raw, boiled, whole)
	weightDefault     = 1.0 // Everything else
	fuzzyWeightFactor = 0.8 // Fuzzy matches get 80% of normal weight
)

// Scoring components, all on a 0-1 scale
const (
	queryCoverageWeight  = 0.60
	usdaCoverageWeight   = 0.20
	jaccardWeight        = 0.20
	substringMatchBonus  = 0.10
	dataTypeGenericBonus = 0.03 // Foundation and SR Legacy: generic whole foods
	dataTypeSurveyBonus  = 0.02
	defaultMinSimilarity = 0.8
)

// foodTerms contains high-importance food keywords (weight 3.0)
var foodTerms = map[string]bool{
	// Staples
	"rice": true, "noodles": true, "bread": true, "flour": true, "corn": true,
	"cassava": true, "potato": true, "potatoes": true, "oats": true, "wheat": true,
	// Proteins
	"chicken": true, "beef": true, "goat": true, "lamb": true, "fish": true,
	"catfish": true, "tilapia": true, "mackerel": true, "tuna": true, "salmon": true,
	"anchovy": true, "anchovies": true, "shrimp": true, "squid": true, "liver": true,
	"egg": true, "eggs": true, "tofu": true, "tempeh": true, "soybean": true,
	"soybeans": true, "peanut": true, "peanuts": true, "beans": true, "lentils": true,
	// Dairy
	"milk": true, "cheese": true, "yogurt": true, "butter": true, "cream": true,
	// Produce
	"spinach": true, "kale": true, "cabbage": true, "carrot": true, "carrots": true,
	"tomato": true, "tomatoes": true, "onion": true, "onions": true, "shallot": true,
	"shallots": true, "garlic": true, "chili": true, "pepper": true, "peppers": true,
	"cucumber": true, "eggplant": true, "pumpkin": true, "broccoli": true, "mushroom": true,
	"mushrooms": true, "banana": true, "bananas": true, "papaya": true, "mango": true,
	"avocado": true, "orange": true, "apple": true, "guava": true, "pineapple": true,
	"coconut": true, "ginger": true, "turmeric": true, "lemongrass": true, "lime": true,
	// Fats, sweeteners, condiments
	"oil": true, "margarine": true, "sugar": true, "honey": true, "salt": true,
	"soy": true, "sauce": true, "vinegar": true, "syrup": true,
	// Beverages
	"juice": true, "tea": true, "coffee": true, "water": true,
}

// descriptiveTerms contains medium-importance descriptive keywords (weight 2.0)
var descriptiveTerms = map[string]bool{
	// Preparation
	"raw": true, "cooked": true, "boiled": true, "steamed": true, "fried": true,
	"grilled": true, "roasted": true, "baked": true, "stewed": true, "braised": true,
	"dried": true, "fresh": true, "frozen": true, "canned": true, "fermented": true,
	"smoked": true, "ground": true, "mashed": true, "instant": true,
	// Variety
	"whole": true, "white": true, "brown": true, "red": true, "green": true,
	"yellow": true, "sweet": true, "plain": true, "vegetable": true, "palm": true,
	"breast": true, "thigh": true, "yolk": true, "skim": true, "lean": true,
	"skinless": true, "boneless": true, "salted": true, "unsalted": true,
	"sweetened": true, "unsweetened": true, "enriched": true, "fortified": true,
	"organic": true, "condensed": true, "evaporated": true,
}

// extendedStopWords includes basic English stop words plus label noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	"without": true, "other": true,
	// Units
	"g": true, "gram": true, "grams": true, "kg": true, "mg": true,
	"ml": true, "liter": true, "liters": true, "oz": true, "fl": true,
	"lb": true, "lbs": true, "cup": true, "cups": true, "tbsp": true,
	"tsp": true, "piece": true, "pieces": true,
	// USDA label noise
	"ns": true, "nfs": true, "nlea": true, "usda": true, "commodity": true,
	"type": true, "prepared": true, "added": true, "made": true,
}

// tokenWeight is a token together with its scoring weight
type tokenWeight struct {
	Token  string
	Weight float64
}

// SimilarityFunc scores how well a USDA description matches a query (0-1)
type SimilarityFunc func(query, description string) float64

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinSimilarity       float64 // 0-1, defaults to 0.8
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
	// Similarity replaces the built-in token scorer when set
	Similarity SimilarityFunc
}

// MatchingService selects the USDA candidate most similar to a food name
type MatchingService struct {
	minSimilarity       float64
	enableFuzzyMatching bool
	fuzzyEditDistance   int
	similarity          SimilarityFunc
	logger              *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	threshold := config.MinSimilarity
	if threshold <= 0 || threshold > 1 {
		threshold = defaultMinSimilarity
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1 // Default edit distance of 1
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchingService{
		minSimilarity:       threshold,
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
		similarity:          config.Similarity,
		logger:              logger.Named("matching"),
	}
}

// FindBestMatch scores every candidate against query and returns the best.
// When the best similarity is below the threshold the match is returned
// together with ErrLowConfidence so callers can log what was rejected.
func (s *MatchingService) FindBestMatch(
	ctx context.Context,
	query string,
	usdaFoods []domain.USDAFood,
) (*domain.MatchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidInput
	}

	if len(usdaFoods) == 0 {
		return nil, domain.ErrProductNotFound
	}

	var bestMatch *domain.MatchResult
	highestScore := -1.0 // so a zero score still yields a candidate

	for _, food := range usdaFoods {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var (
			score         float64
			matchedTokens []string
		)
		if s.similarity != nil {
			score = s.similarity(query, food.Description)
		} else {
			score, matchedTokens = s.calculateMatchScore(query, food.Description, food.DataType)
		}

		s.logger.Debug("scored candidate",
			zap.String("query", query),
			zap.String("description", food.Description),
			zap.String("data_type", food.DataType),
			zap.Float64("similarity", score),
			zap.Strings("matched", matchedTokens),
		)

		if score > highestScore {
			highestScore = score
			bestMatch = &domain.MatchResult{
				FdcID:         food.FdcID,
				Description:   food.Description,
				Similarity:    score,
				MatchedTokens: matchedTokens,
			}
		}
	}

	if bestMatch.Similarity < s.minSimilarity {
		return bestMatch, domain.ErrLowConfidence
	}

	return bestMatch, nil
}

// calculateMatchScore computes similarity between a food name and a USDA description.
// Uses a weighted combination of:
//   - Query token coverage, weighted by token importance (most important)
//   - USDA token coverage
//   - Jaccard overlap
//   - Substring and data type bonuses
//
// Returns the score (0-1) and the list of matched tokens; fuzzy matches are
// reported as "query~usda".
func (s *MatchingService) calculateMatchScore(query, usdaDescription, dataType string) (float64, []string) {
	cleanedQuery := cleanQueryForMatching(query)
	queryTokens := tokenizeWithWeights(cleanedQuery)
	usdaTokens := tokenize(usdaDescription)

	if len(queryTokens) == 0 || len(usdaTokens) == 0 {
		return 0, nil
	}

	usdaSet := make(map[string]bool, len(usdaTokens))
	for _, t := range usdaTokens {
		usdaSet[t] = true
	}

	var totalWeight, matchedWeight float64
	var matchedTokens []string
	plainQuery := make([]string, 0, len(queryTokens))
	for _, qt := range queryTokens {
		plainQuery = append(plainQuery, qt.Token)
		totalWeight += qt.Weight

		if usdaSet[qt.Token] {
			matchedWeight += qt.Weight
			matchedTokens = append(matchedTokens, qt.Token)
			continue
		}
		if !s.enableFuzzyMatching {
			continue
		}
		for _, ut := range usdaTokens {
			if fuzzyTokenMatch(qt.Token, ut, s.fuzzyEditDistance) {
				matchedWeight += qt.Weight * fuzzyWeightFactor
				matchedTokens = append(matchedTokens, qt.Token+"~"+ut)
				break
			}
		}
	}
	queryCoverage := matchedWeight / totalWeight

	// USDA descriptions carry many extra qualifiers, so this weighs less
	usdaMatched, _ := findIntersection(usdaTokens, plainQuery)
	usdaCoverage := float64(usdaMatched) / float64(len(usdaTokens))

	exactMatched, _ := findIntersection(plainQuery, usdaTokens)
	jaccard := float64(exactMatched) / float64(findUnion(plainQuery, usdaTokens))

	score := queryCoverage*queryCoverageWeight + usdaCoverage*usdaCoverageWeight + jaccard*jaccardWeight

	queryLower := strings.ToLower(cleanedQuery)
	usdaLower := strings.ToLower(usdaDescription)
	if len(queryLower) >= 3 && (strings.Contains(usdaLower, queryLower) || strings.Contains(queryLower, usdaLower)) {
		score += substringMatchBonus
	}

	switch dataType {
	case "Foundation", "SR Legacy":
		score += dataTypeGenericBonus
	case "Survey (FNDDS)":
		score += dataTypeSurveyBonus
	}

	if score > 1 {
		score = 1
	}

	return score, matchedTokens
}

// cleanQueryForMatching strips quantities and parenthesised notes from a name
func cleanQueryForMatching(name string) string {
	name = parentheticalPattern.ReplaceAllString(name, " ")
	name = sizeQuantityPattern.ReplaceAllString(name, " ")
	name = multiSpacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words, label noise, and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if extendedStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// tokenizeWithWeights tokenizes s and attaches each token's importance
func tokenizeWithWeights(s string) []tokenWeight {
	tokens := tokenize(s)
	weighted := make([]tokenWeight, 0, len(tokens))
	for _, t := range tokens {
		weighted = append(weighted, tokenWeight{Token: t, Weight: getTokenWeight(t)})
	}
	return weighted
}

// getTokenWeight returns the scoring weight of a single token
func getTokenWeight(token string) float64 {
	switch {
	case foodTerms[token]:
		return weightFood
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to longer tokens to avoid false positives
	if len(token1) < 5 || len(token2) < 5 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
