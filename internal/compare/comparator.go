package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/gauntlet-qa/gauntlet/internal/common"
	"github.com/gauntlet-qa/gauntlet/internal/extract"
)

const defaultThreshold = 0.8

// Config holds construction options for a Comparator. The zero value gives
// the defaults: 0.8 threshold, case folding and whitespace collapsing on,
// an ignore-mode extractor, no judge.
type Config struct {
	// Extractor resolves extraction paths before comparison. Shared and
	// injected so its failure mode is configured in one place.
	Extractor *extract.Extractor
	// Judge is the capability behind ModeSemantic. Leave nil to have
	// semantic comparisons fail with a "not configured" result.
	Judge Judge
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// Threshold applies to fuzzy and semantic scores. Zero means 0.8.
	Threshold float64
	// CaseSensitive disables the default lowercase folding.
	CaseSensitive bool
	// KeepWhitespace disables the default whitespace collapsing.
	KeepWhitespace bool
}

// Comparator scores extracted text pairs. Configuration is immutable after
// construction; a single instance is safe for concurrent use.
type Comparator struct {
	extractor      *extract.Extractor
	judge          Judge
	logger         *slog.Logger
	threshold      float64
	caseSensitive  bool
	keepWhitespace bool
}

// New creates a Comparator from cfg, filling in defaults.
func New(cfg Config) *Comparator {
	if cfg.Threshold == 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(extract.FailureIgnore, cfg.Logger)
	}
	return &Comparator{
		extractor:      cfg.Extractor,
		judge:          cfg.Judge,
		logger:         cfg.Logger,
		threshold:      cfg.Threshold,
		caseSensitive:  cfg.CaseSensitive,
		keepWhitespace: cfg.KeepWhitespace,
	}
}

// Compare extracts both sides via their paths, dispatches on mode, and
// merges the extraction bookkeeping into the result details. It never
// returns an error: every failure, including an unknown mode, collapses to
// a Result with ErrorMessage set, zero score, and the originals preserved.
func (c *Comparator) Compare(ctx context.Context, expected, actual string, mode Mode, expectedPath, actualPath string) Result {
	extractedExpected, err := c.extractor.Extract(expected, expectedPath)
	if err != nil {
		c.logger.Error("comparison failed", "mode", mode, "error", err)
		return errorResult(mode, expected, actual, err)
	}
	extractedActual, err := c.extractor.Extract(actual, actualPath)
	if err != nil {
		c.logger.Error("comparison failed", "mode", mode, "error", err)
		return errorResult(mode, expected, actual, err)
	}

	var result Result
	switch mode {
	case ModeExact:
		result = c.exactMatch(extractedExpected, extractedActual)
	case ModeFuzzy:
		result = c.fuzzyMatch(extractedExpected, extractedActual)
	case ModeContains:
		result = c.containsMatch(extractedExpected, extractedActual)
	case ModeJSON:
		result = c.jsonMatch(extractedExpected, extractedActual)
	case ModeSemantic:
		result = c.semanticMatch(ctx, extractedExpected, extractedActual)
	default:
		err := fmt.Errorf("%w: %q", common.ErrUnsupportedMode, mode)
		c.logger.Error("comparison failed", "mode", mode, "error", err)
		return errorResult(mode, expected, actual, err)
	}

	result.Mode = mode
	result.Expected = expected
	result.Actual = actual
	result.detail(DetailExpectedExtractPath, expectedPath)
	result.detail(DetailActualExtractPath, actualPath)
	result.detail(DetailExtractedExpected, extractedExpected)
	result.detail(DetailExtractedActual, extractedActual)
	result.detail(DetailOriginalExpected, expected)
	result.detail(DetailOriginalActual, actual)

	return result
}

// normalize applies the configured case folding and whitespace collapsing.
func (c *Comparator) normalize(s string) string {
	if !c.caseSensitive {
		s = strings.ToLower(s)
	}
	if !c.keepWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	}
	return s
}

func (c *Comparator) exactMatch(expected, actual string) Result {
	expNorm := c.normalize(expected)
	actNorm := c.normalize(actual)

	result := Result{IsMatch: expNorm == actNorm}
	if result.IsMatch {
		result.Score = 1.0
	} else {
		result.Diff = unifiedDiff(expNorm, actNorm, "expected", "actual")
	}
	return result
}

func (c *Comparator) fuzzyMatch(expected, actual string) Result {
	expNorm := c.normalize(expected)
	actNorm := c.normalize(actual)

	ratio := float64(fuzzy.Ratio(expNorm, actNorm)) / 100.0
	partialRatio := float64(fuzzy.PartialRatio(expNorm, actNorm)) / 100.0
	tokenSortRatio := float64(fuzzy.TokenSortRatio(expNorm, actNorm)) / 100.0
	tokenSetRatio := float64(fuzzy.TokenSetRatio(expNorm, actNorm)) / 100.0

	score := ratio
	for _, s := range []float64{partialRatio, tokenSortRatio, tokenSetRatio} {
		if s > score {
			score = s
		}
	}

	result := Result{
		IsMatch: score >= c.threshold,
		Score:   score,
	}
	result.detail("ratio", ratio)
	result.detail("partial_ratio", partialRatio)
	result.detail("token_sort_ratio", tokenSortRatio)
	result.detail("token_set_ratio", tokenSetRatio)
	result.detail("threshold", c.threshold)

	if !result.IsMatch {
		result.Diff = unifiedDiff(expNorm, actNorm, "expected", "actual")
	}
	return result
}

func (c *Comparator) containsMatch(expected, actual string) Result {
	expNorm := c.normalize(expected)
	actNorm := c.normalize(actual)

	result := Result{IsMatch: strings.Contains(actNorm, expNorm)}
	if result.IsMatch {
		result.Score = 1.0
	}
	result.detail("contains_check", fmt.Sprintf("%q in %q", expNorm, actNorm))
	return result
}

// jsonMatch compares both sides structurally. Parse failures are captured
// locally in the result rather than routed through the top-level handler,
// so the originals stay visible alongside the decode error.
func (c *Comparator) jsonMatch(expected, actual string) Result {
	var expectedVal any
	if err := json.Unmarshal([]byte(expected), &expectedVal); err != nil {
		return Result{ErrorMessage: fmt.Sprintf("JSON parse error in expected value: %v", err)}
	}

	var actualVal any
	if err := json.Unmarshal([]byte(extract.StripFence(actual)), &actualVal); err != nil {
		return Result{ErrorMessage: fmt.Sprintf("JSON parse error in actual value: %v", err)}
	}

	result := Result{IsMatch: reflect.DeepEqual(expectedVal, actualVal)}
	if result.IsMatch {
		result.Score = 1.0
		return result
	}

	expectedPretty, _ := json.MarshalIndent(expectedVal, "", "  ")
	actualPretty, _ := json.MarshalIndent(actualVal, "", "  ")
	result.Diff = unifiedDiff(string(expectedPretty), string(actualPretty), "expected.json", "actual.json")
	return result
}

// unifiedDiff renders a line diff of a against b with three lines of
// context, swallowing the (impossible for in-memory writers) error.
func unifiedDiff(a, b, fromFile, toFile string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(diff, "\n")
}
