package compare

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauntlet-qa/gauntlet/internal/extract"
)

func TestCompareExact(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	t.Run("identical strings match", func(t *testing.T) {
		result := c.Compare(ctx, "hello world", "hello world", ModeExact, "$", "$")
		assert.True(t, result.IsMatch)
		assert.Equal(t, 1.0, result.Score)
		assert.Empty(t, result.Diff)
		assert.Empty(t, result.ErrorMessage)
	})

	t.Run("case and whitespace normalized by default", func(t *testing.T) {
		result := c.Compare(ctx, "Hello World", "hello   world", ModeExact, "$", "$")
		assert.True(t, result.IsMatch)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("mismatch carries a unified diff", func(t *testing.T) {
		result := c.Compare(ctx, "line one\nline two", "line one\nline three", ModeExact, "$", "$")
		assert.False(t, result.IsMatch)
		assert.Zero(t, result.Score)
		assert.Contains(t, result.Diff, "--- expected")
		assert.Contains(t, result.Diff, "+++ actual")
	})

	t.Run("case sensitive config", func(t *testing.T) {
		strict := New(Config{CaseSensitive: true})
		result := strict.Compare(ctx, "Hello", "hello", ModeExact, "$", "$")
		assert.False(t, result.IsMatch)
	})

	t.Run("whitespace preserved config", func(t *testing.T) {
		strict := New(Config{KeepWhitespace: true})
		result := strict.Compare(ctx, "a  b", "a b", ModeExact, "$", "$")
		assert.False(t, result.IsMatch)
	})
}

func TestCompareFuzzy(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	t.Run("identical strings score one", func(t *testing.T) {
		result := c.Compare(ctx, "the quick brown fox", "the quick brown fox", ModeFuzzy, "$", "$")
		assert.True(t, result.IsMatch)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("normalization neutralizes case and spacing", func(t *testing.T) {
		result := c.Compare(ctx, "Hello World", "hello   world", ModeFuzzy, "$", "$")
		assert.True(t, result.IsMatch)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("token order does not matter", func(t *testing.T) {
		result := c.Compare(ctx, "brown fox quick the", "the quick brown fox", ModeFuzzy, "$", "$")
		assert.True(t, result.IsMatch)
		sub, ok := result.Details["token_sort_ratio"].(float64)
		require.True(t, ok)
		assert.Equal(t, 1.0, sub)
	})

	t.Run("records all four sub-scores and threshold", func(t *testing.T) {
		result := c.Compare(ctx, "alpha beta", "alpha gamma", ModeFuzzy, "$", "$")
		for _, key := range []string{"ratio", "partial_ratio", "token_sort_ratio", "token_set_ratio", "threshold"} {
			assert.Contains(t, result.Details, key)
		}
	})

	t.Run("unrelated strings miss and carry a diff", func(t *testing.T) {
		result := c.Compare(ctx, "completely different subject", "zzz qqq xxx", ModeFuzzy, "$", "$")
		assert.False(t, result.IsMatch)
		assert.NotEmpty(t, result.Diff)
	})

	t.Run("score does not decrease as strings converge", func(t *testing.T) {
		far := c.Compare(ctx, "abcdef", "abXXXX", ModeFuzzy, "$", "$")
		near := c.Compare(ctx, "abcdef", "abcdeX", ModeFuzzy, "$", "$")
		same := c.Compare(ctx, "abcdef", "abcdef", ModeFuzzy, "$", "$")
		assert.GreaterOrEqual(t, near.Score, far.Score)
		assert.GreaterOrEqual(t, same.Score, near.Score)
	})

	t.Run("custom threshold", func(t *testing.T) {
		lenient := New(Config{Threshold: 0.1})
		result := lenient.Compare(ctx, "alpha beta gamma", "alpha", ModeFuzzy, "$", "$")
		assert.True(t, result.IsMatch)
	})
}

func TestCompareContains(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	t.Run("substring matches", func(t *testing.T) {
		result := c.Compare(ctx, "brown fox", "The Quick Brown Fox Jumps", ModeContains, "$", "$")
		assert.True(t, result.IsMatch)
		assert.Equal(t, 1.0, result.Score)
		assert.Contains(t, result.Details, "contains_check")
	})

	t.Run("missing substring does not match", func(t *testing.T) {
		result := c.Compare(ctx, "purple cow", "the quick brown fox", ModeContains, "$", "$")
		assert.False(t, result.IsMatch)
		assert.Zero(t, result.Score)
		assert.Empty(t, result.Diff)
	})
}

func TestCompareJSON(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	t.Run("key order is irrelevant", func(t *testing.T) {
		result := c.Compare(ctx, `{"a":1,"b":2}`, `{"b":2,"a":1}`, ModeJSON, "$", "$")
		assert.True(t, result.IsMatch)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("array order matters", func(t *testing.T) {
		result := c.Compare(ctx, `{"items":[1,2]}`, `{"items":[2,1]}`, ModeJSON, "$", "$")
		assert.False(t, result.IsMatch)
		assert.NotEmpty(t, result.Diff)
	})

	t.Run("value mismatch carries pretty diff", func(t *testing.T) {
		result := c.Compare(ctx, `{"a":1}`, `{"a":2}`, ModeJSON, "$", "$")
		assert.False(t, result.IsMatch)
		assert.Contains(t, result.Diff, "expected.json")
		assert.Contains(t, result.Diff, "actual.json")
	})

	t.Run("actual may be fenced", func(t *testing.T) {
		result := c.Compare(ctx, `{"x":"y"}`, "```json\n{\"x\":\"y\"}\n```", ModeJSON, "$", "$")
		assert.True(t, result.IsMatch)
	})

	t.Run("bad expected json is a local error result", func(t *testing.T) {
		result := c.Compare(ctx, "not json", `{"a":1}`, ModeJSON, "$", "$")
		assert.False(t, result.IsMatch)
		assert.Zero(t, result.Score)
		assert.Contains(t, result.ErrorMessage, "expected value")
	})

	t.Run("bad actual json is a local error result", func(t *testing.T) {
		result := c.Compare(ctx, `{"a":1}`, "still not json", ModeJSON, "$", "$")
		assert.False(t, result.IsMatch)
		assert.Contains(t, result.ErrorMessage, "actual value")
	})

	t.Run("json mode skips normalization", func(t *testing.T) {
		result := c.Compare(ctx, `{"a":"VALUE"}`, `{"a":"value"}`, ModeJSON, "$", "$")
		assert.False(t, result.IsMatch)
	})
}

func TestCompareBookkeepingDetails(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	expected := `{"answer":"yes"}`
	actual := `{"result":{"answer":"YES"}}`

	result := c.Compare(ctx, expected, actual, ModeExact, "$.answer", "$.result.answer")

	require.NotNil(t, result.Details)
	assert.Equal(t, "$.answer", result.Details[DetailExpectedExtractPath])
	assert.Equal(t, "$.result.answer", result.Details[DetailActualExtractPath])
	assert.Equal(t, "yes", result.Details[DetailExtractedExpected])
	assert.Equal(t, "YES", result.Details[DetailExtractedActual])
	assert.Equal(t, expected, result.Details[DetailOriginalExpected])
	assert.Equal(t, actual, result.Details[DetailOriginalActual])

	// The record's own fields keep the pre-extraction originals.
	assert.Equal(t, expected, result.Expected)
	assert.Equal(t, actual, result.Actual)
	assert.True(t, result.IsMatch, "extracted values compare equal after folding")
}

func TestCompareUnknownMode(t *testing.T) {
	c := New(Config{})

	result := c.Compare(context.Background(), "a", "b", ModeCustom, "$", "$")
	assert.False(t, result.IsMatch)
	assert.Zero(t, result.Score)
	assert.Contains(t, result.ErrorMessage, "unsupported comparison mode")
	assert.Equal(t, "a", result.Expected)
	assert.Equal(t, "b", result.Actual)
	assert.Equal(t, ModeCustom, result.Mode)
}

func TestCompareExtractionErrorCaptured(t *testing.T) {
	strict := New(Config{Extractor: extract.New(extract.FailureError, nil)})

	result := strict.Compare(context.Background(), `{"a":1}`, `{"a":1}`, ModeExact, "$.missing", "$")
	assert.False(t, result.IsMatch)
	assert.Zero(t, result.Score)
	assert.NotEmpty(t, result.ErrorMessage)
	assert.Equal(t, `{"a":1}`, result.Expected)
}

func TestCompareExtractionIgnoreFallback(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	// Both sides fall back to their full original content, which differ.
	result := c.Compare(ctx, `{"a":1}`, `{"b":2}`, ModeExact, "$.missing", "$.missing")
	assert.False(t, result.IsMatch)
	assert.Equal(t, `{"a":1}`, result.Details[DetailExtractedExpected])
	assert.Equal(t, `{"b":2}`, result.Details[DetailExtractedActual])
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "exact", want: ModeExact},
		{in: "FUZZY", want: ModeFuzzy},
		{in: " contains ", want: ModeContains},
		{in: "json", want: ModeJSON},
		{in: "semantic", want: ModeSemantic},
		{in: "custom", want: ModeCustom},
		{in: "nope", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	c := New(Config{})
	in := "  Mixed   CASE\ttext \n here "
	once := c.normalize(in)
	assert.Equal(t, once, c.normalize(once))
	assert.Equal(t, "mixed case text here", once)
	assert.False(t, strings.Contains(once, "  "))
}
