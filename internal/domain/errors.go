package domain

import "errors"

var (
	// ErrInvalidInput is returned when request parameters are malformed or empty
	ErrInvalidInput = errors.New("invalid input")

	// ErrInterpretation is returned when ingredient lines cannot be turned into structured ingredients
	ErrInterpretation = errors.New("ingredient interpretation failed")

	// ErrOracleFailure is returned when the text interpretation service request fails
	ErrOracleFailure = errors.New("text oracle request failed")

	// ErrProductNotFound is returned when a food cannot be found in the USDA database
	ErrProductNotFound = errors.New("product not found in USDA database")

	// ErrLowConfidence is returned when the best remote candidate is below the similarity threshold
	ErrLowConfidence = errors.New("match similarity below threshold")

	// ErrUSDAAPIFailure is returned when USDA API request fails
	ErrUSDAAPIFailure = errors.New("USDA API request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrAmbiguousAlias is returned when a nutrient alias table is inconsistent
	ErrAmbiguousAlias = errors.New("ambiguous nutrient alias table")

	// ErrMealLogNotFound is returned when a user has no meals on the requested day
	ErrMealLogNotFound = errors.New("meal log not found")
)
