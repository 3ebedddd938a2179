package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// maxQueryLength keeps USDA search queries short enough to stay relevant
const maxQueryLength = 100

// QueryPreprocessor turns canonical ingredient names into USDA search queries
type QueryPreprocessor struct {
	logger *zap.Logger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches quantity patterns like "100 g", "1.5 liter", "2 tbsp", "14ml"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+([.,]\d+)?\s*(fl\s*)?(oz|ounces?|lbs?|pounds?|ml|millilit(er|re)s?|lit(er|re)s?|l|kg|kilograms?|grams?|g|mg|tbsp|tablespoons?|tsp|teaspoons?|cups?|sdm|sdt)\b`)

	// Matches count patterns like "2 pieces", "3 slices", "1 pack"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+\s*(pieces?|slices?|packs?|pcs|butir|buah|potong|lembar)\b`)

	// Matches parenthesised notes like "(optional)" or "(about 50 g)"
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)

	// Matches standalone numbers left at the boundaries (e.g., ", 2", "2 -")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\s*\d+\.?\d*\s*[,\-]?`)

	orphanedInnerPunctuation    = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	orphanedTrailingPunctuation = regexp.MustCompile(`[,\-;:]+\s*$`)
	orphanedLeadingPunctuation  = regexp.MustCompile(`^\s*[,\-;:]+`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are recipe-line words that do not help a composition search
var queryNoiseWords = map[string]bool{
	// Hedges
	"about":         true,
	"approx":        true,
	"approximately": true,
	"around":        true,
	"some":          true,
	"optional":      true,
	"taste":         true,
	"homemade":      true,

	// Size descriptors
	"large":  true,
	"medium": true,
	"small":  true,
	"big":    true,
	"little": true,

	// Portion words
	"piece":   true,
	"pieces":  true,
	"slice":   true,
	"slices":  true,
	"portion": true,
	"serving": true,
	"handful": true,
	"pinch":   true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{logger: logger.Named("preprocess")}
}

// PreprocessQuery cleans a canonical ingredient name for USDA search.
// Removes quantities, counts, parenthesised notes and noise words, and
// normalizes whitespace. The result is lowercase.
func (p *QueryPreprocessor) PreprocessQuery(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	original := name

	cleaned := parentheticalPattern.ReplaceAllString(name, " ")
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = p.removeNoiseWords(cleaned)
	cleaned = cleanOrphanedPunctuation(cleaned)
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// A name made only of noise still deserves a search
	if cleaned == "" {
		cleaned = strings.ToLower(strings.TrimSpace(multiSpacePattern.ReplaceAllString(original, " ")))
	}

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	p.logger.Debug("preprocessed query", zap.String("input", original), zap.String("output", cleaned))

	return cleaned
}

// removeNoiseWords removes hedges and portion words from the query
func (p *QueryPreprocessor) removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.Trim(word, ",.!?;:-'\"")
		if !queryNoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation that's now alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := orphanedInnerPunctuation.ReplaceAllString(s, " ")
	result = orphanedTrailingPunctuation.ReplaceAllString(result, "")
	result = orphanedLeadingPunctuation.ReplaceAllString(result, "")
	return result
}

// ExtractFoodKeywords extracts the most important food-related keywords from text
// Returns a slice of keywords ordered by importance
func (p *QueryPreprocessor) ExtractFoodKeywords(text string) []string {
	tokens := tokenize(text)

	var highPriority, medPriority, lowPriority []string
	for _, token := range tokens {
		switch getTokenWeight(token) {
		case weightFood:
			highPriority = append(highPriority, token)
		case weightDescriptive:
			medPriority = append(medPriority, token)
		default:
			lowPriority = append(lowPriority, token)
		}
	}

	result := make([]string, 0, len(tokens))
	result = append(result, highPriority...)
	result = append(result, medPriority...)
	result = append(result, lowPriority...)

	return result
}
