package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/gizibunda/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultSystemPrompt is sent with every directive unless overridden
const DefaultSystemPrompt = "You are a helpful nutrition assistant. You answer with JSON only."

// DefaultDirectiveTemplate renders the ingredient lines into the oracle directive.
// The template receives {{.Lines}}.
const DefaultDirectiveTemplate = `You are a nutrition assistant. Given a list of food ingredients written in Indonesian natural language, return a JSON array with one object per ingredient and these fields:
- name_en: corrected English name of the ingredient (match USDA FoodData Central naming)
- name_id: corrected Indonesian name of the ingredient (match TKPI naming)
- quantity: numeric amount, greater than zero
- unit: "g" or "ml"

Convert household measures: 1 sdm is about 15 g or 15 ml unless the ingredient has a known weight per spoon (1 sdm honey is 21 g); 1 sdt is about 5 g; 1 gelas is about 240 ml; 1 piring of rice is about 200 g.
Convert counts to grams: 1 butir egg is about 50 g, 1 potong tofu is about 80 g, 1 potong tempe is about 25 g.

Input:
{{range .Lines}}- {{.}}
{{end}}
Output ONLY a valid JSON array.`

var codeFencePattern = regexp.MustCompile("(?i)```(json)?")

// InterpreterConfig holds the prompts injected into the interpreter
type InterpreterConfig struct {
	SystemPrompt      string
	DirectiveTemplate string
}

// Interpreter turns free-text ingredient lines into structured ingredients
// through a text oracle. It never retries; retry policy belongs to the oracle client.
type Interpreter struct {
	oracle       domain.TextOracle
	systemPrompt string
	directive    *template.Template
	logger       *zap.Logger
}

// directiveData is the data passed to the directive template
type directiveData struct {
	Lines []string
}

// NewInterpreter parses the directive template. Empty config fields fall back to defaults.
func NewInterpreter(oracle domain.TextOracle, config InterpreterConfig, logger *zap.Logger) (*Interpreter, error) {
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	if config.DirectiveTemplate == "" {
		config.DirectiveTemplate = DefaultDirectiveTemplate
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("directive").Option("missingkey=error").Parse(config.DirectiveTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid directive template: %w", err)
	}

	return &Interpreter{
		oracle:       oracle,
		systemPrompt: config.SystemPrompt,
		directive:    tmpl,
		logger:       logger.Named("interpreter"),
	}, nil
}

// Interpret sends the lines to the oracle and validates the structured reply.
// Quantities chosen by the oracle are trusted as-is.
func (i *Interpreter) Interpret(ctx context.Context, lines []string) ([]domain.ParsedIngredient, error) {
	if len(lines) == 0 {
		return []domain.ParsedIngredient{}, nil
	}

	var buf bytes.Buffer
	if err := i.directive.Execute(&buf, directiveData{Lines: lines}); err != nil {
		return nil, fmt.Errorf("%w: rendering directive: %v", domain.ErrInterpretation, err)
	}

	reply, err := i.oracle.Complete(ctx, i.systemPrompt, buf.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInterpretation, err)
	}

	parsed, err := parseIngredients(reply)
	if err != nil {
		i.logger.Warn("unusable oracle reply",
			zap.Error(err),
			zap.Int("lines", len(lines)),
			zap.String("reply", truncateForLog(reply, 256)),
		)
		return nil, err
	}

	i.logger.Debug("interpreted ingredients", zap.Int("lines", len(lines)), zap.Int("ingredients", len(parsed)))
	return parsed, nil
}

// stripCodeFences removes markdown code fences around a JSON reply
func stripCodeFences(s string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(s, ""))
}

func parseIngredients(reply string) ([]domain.ParsedIngredient, error) {
	content := stripCodeFences(reply)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: reply is not a JSON array: %v", domain.ErrInterpretation, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty ingredient list for non-empty input", domain.ErrInterpretation)
	}

	parsed := make([]domain.ParsedIngredient, 0, len(raw))
	for idx, item := range raw {
		var ing domain.ParsedIngredient
		if err := json.Unmarshal(item, &ing); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrInterpretation, idx, err)
		}
		if err := validateIngredient(&ing); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrInterpretation, idx, err)
		}
		parsed = append(parsed, ing)
	}

	return parsed, nil
}

// validateIngredient enforces the shape contract and canonicalizes the unit
func validateIngredient(ing *domain.ParsedIngredient) error {
	ing.NameLocal = strings.TrimSpace(ing.NameLocal)
	ing.NameCanonical = strings.TrimSpace(ing.NameCanonical)
	ing.Unit = strings.ToLower(strings.TrimSpace(ing.Unit))

	if ing.NameLocal == "" && ing.NameCanonical == "" {
		return fmt.Errorf("missing name_id and name_en")
	}
	if ing.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", ing.Quantity)
	}
	if ing.Unit != domain.UnitGram && ing.Unit != domain.UnitMilliliter {
		return fmt.Errorf("unit must be %q or %q, got %q", domain.UnitGram, domain.UnitMilliliter, ing.Unit)
	}
	return nil
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
