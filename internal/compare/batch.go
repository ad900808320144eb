package compare

import (
	"context"
	"fmt"
)

// Pair is one batch element: an expectation, the text to score against it,
// and an optional caller-supplied id.
type Pair struct {
	ID       string
	Expected string
	Actual   string
}

// BatchComparator runs a Comparator over collections of pairs and reduces
// result slices to summary statistics.
type BatchComparator struct {
	comparator *Comparator
}

// NewBatch wraps a Comparator for batch use. A nil comparator gets the
// default configuration.
func NewBatch(comparator *Comparator) *BatchComparator {
	if comparator == nil {
		comparator = New(Config{})
	}
	return &BatchComparator{comparator: comparator}
}

// Comparator exposes the wrapped single-pair comparator.
func (b *BatchComparator) Comparator() *Comparator {
	return b.comparator
}

// CompareBatch compares every pair under mode, preserving input order.
// A failing element yields an error-shaped Result at its position and
// never aborts the batch. Each result carries test_index and test_id
// details.
func (b *BatchComparator) CompareBatch(ctx context.Context, pairs []Pair, mode Mode) []Result {
	results := make([]Result, 0, len(pairs))

	for i, pair := range pairs {
		result := b.comparator.Compare(ctx, pair.Expected, pair.Actual, mode, "$", "$")

		id := pair.ID
		if id == "" {
			id = fmt.Sprintf("test_%d", i)
		}
		result.detail("test_index", i)
		result.detail("test_id", id)

		results = append(results, result)
	}

	return results
}

// Summary aggregates a result slice. Errors counts results whose
// ErrorMessage is set; those are also failures.
type Summary struct {
	Total         int     `json:"total_tests"`
	Passed        int     `json:"passed_tests"`
	Failed        int     `json:"failed_tests"`
	Errors        int     `json:"error_tests"`
	PassRate      float64 `json:"pass_rate"`
	AvgSimilarity float64 `json:"average_similarity"`
	MinSimilarity float64 `json:"min_similarity"`
	MaxSimilarity float64 `json:"max_similarity"`
}

// Summarize reduces results to aggregate statistics without recomputing
// any comparison.
func Summarize(results []Result) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	summary := Summary{
		Total:         len(results),
		MinSimilarity: results[0].Score,
		MaxSimilarity: results[0].Score,
	}

	var sum float64
	for _, r := range results {
		if r.IsMatch {
			summary.Passed++
		}
		if r.ErrorMessage != "" {
			summary.Errors++
		}
		sum += r.Score
		if r.Score < summary.MinSimilarity {
			summary.MinSimilarity = r.Score
		}
		if r.Score > summary.MaxSimilarity {
			summary.MaxSimilarity = r.Score
		}
	}

	summary.Failed = summary.Total - summary.Passed
	summary.PassRate = float64(summary.Passed) / float64(summary.Total)
	summary.AvgSimilarity = sum / float64(summary.Total)
	return summary
}
