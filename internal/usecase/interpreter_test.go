package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterpreter(t *testing.T, oracle *MockTextOracle) *Interpreter {
	t.Helper()
	interp, err := NewInterpreter(oracle, InterpreterConfig{}, nil)
	require.NoError(t, err)
	return interp
}

func TestInterpreter_Interpret(t *testing.T) {
	ctx := context.Background()

	t.Run("parses fenced array", func(t *testing.T) {
		oracle := &MockTextOracle{reply: "```json\n[{\"name_id\":\"tempe\",\"name_en\":\"tempeh\",\"quantity\":100,\"unit\":\"g\"}," +
			"{\"name_id\":\"minyak goreng\",\"name_en\":\"vegetable oil\",\"quantity\":14,\"unit\":\"ML\"}]\n```"}
		interp := newTestInterpreter(t, oracle)

		got, err := interp.Interpret(ctx, []string{"100 gram tempe", "1 sdm minyak goreng"})
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, domain.ParsedIngredient{NameLocal: "tempe", NameCanonical: "tempeh", Quantity: 100, Unit: "g"}, got[0])
		assert.Equal(t, "ml", got[1].Unit)
		assert.Equal(t, 1, oracle.calls)
		assert.Equal(t, DefaultSystemPrompt, oracle.systemPrompt)
		assert.Contains(t, oracle.prompt, "- 100 gram tempe\n")
		assert.Contains(t, oracle.prompt, "- 1 sdm minyak goreng\n")
	})

	t.Run("plain array without fences", func(t *testing.T) {
		oracle := &MockTextOracle{reply: `[{"name_id":"nasi putih","name_en":"white rice","quantity":200,"unit":"g"}]`}
		got, err := newTestInterpreter(t, oracle).Interpret(ctx, []string{"sepiring nasi"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 200.0, got[0].Quantity)
	})

	t.Run("empty input skips oracle", func(t *testing.T) {
		oracle := &MockTextOracle{}
		got, err := newTestInterpreter(t, oracle).Interpret(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
		assert.Equal(t, 0, oracle.calls)
	})

	t.Run("oracle failure wraps both errors", func(t *testing.T) {
		oracle := &MockTextOracle{err: domain.ErrOracleFailure}
		_, err := newTestInterpreter(t, oracle).Interpret(ctx, []string{"tempe"})
		assert.True(t, errors.Is(err, domain.ErrInterpretation))
		assert.True(t, errors.Is(err, domain.ErrOracleFailure))
	})

	invalidReplies := map[string]string{
		"not json":          "Sure! Here are your ingredients.",
		"object not array":  `{"name_en":"tempeh","quantity":100,"unit":"g"}`,
		"empty array":       "```json\n[]\n```",
		"missing names":     `[{"quantity":100,"unit":"g"}]`,
		"zero quantity":     `[{"name_en":"tempeh","quantity":0,"unit":"g"}]`,
		"negative quantity": `[{"name_en":"tempeh","quantity":-5,"unit":"g"}]`,
		"unsupported unit":  `[{"name_en":"tempeh","quantity":1,"unit":"sdm"}]`,
		"quantity string":   `[{"name_en":"tempeh","quantity":"100","unit":"g"}]`,
		"item not object":   `["tempeh"]`,
	}
	for name, reply := range invalidReplies {
		t.Run(name, func(t *testing.T) {
			oracle := &MockTextOracle{reply: reply}
			_, err := newTestInterpreter(t, oracle).Interpret(ctx, []string{"tempe"})
			assert.ErrorIs(t, err, domain.ErrInterpretation)
		})
	}
}

func TestNewInterpreter_CustomPrompts(t *testing.T) {
	oracle := &MockTextOracle{reply: `[{"name_en":"egg","quantity":50,"unit":"g"}]`}
	interp, err := NewInterpreter(oracle, InterpreterConfig{
		SystemPrompt:      "system",
		DirectiveTemplate: "lines:{{range .Lines}} [{{.}}]{{end}}",
	}, nil)
	require.NoError(t, err)

	_, err = interp.Interpret(context.Background(), []string{"1 butir telur", "garam"})
	require.NoError(t, err)
	assert.Equal(t, "system", oracle.systemPrompt)
	assert.Equal(t, "lines: [1 butir telur] [garam]", oracle.prompt)
}

func TestNewInterpreter_InvalidTemplate(t *testing.T) {
	_, err := NewInterpreter(&MockTextOracle{}, InterpreterConfig{DirectiveTemplate: "{{range .Lines}"}, nil)
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```JSON [1] ```", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"  [1]  ", "[1]"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, stripCodeFences(tc.in))
	}
}
