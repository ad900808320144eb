package compare

// Detail keys guaranteed present on every Result produced by
// Comparator.Compare, regardless of mode. Report renderers rely on these
// to show extracted values next to the originals.
const (
	DetailExpectedExtractPath = "expected_extract_path"
	DetailActualExtractPath   = "actual_extract_path"
	DetailExtractedExpected   = "extracted_expected"
	DetailExtractedActual     = "extracted_actual"
	DetailOriginalExpected    = "original_expected"
	DetailOriginalActual      = "original_actual"
)

// Result is the outcome of a single comparison. Expected and Actual always
// hold the original pre-extraction inputs; the extracted values live under
// the detail keys above.
type Result struct {
	Details      map[string]any `json:"details,omitempty"`
	Mode         Mode           `json:"mode"`
	Expected     string         `json:"expected"`
	Actual       string         `json:"actual"`
	Diff         string         `json:"diff,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Score        float64        `json:"similarity_score"`
	IsMatch      bool           `json:"is_match"`
}

// detail lazily initializes the Details map and sets a key.
func (r *Result) detail(key string, value any) {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
}

// errorResult builds the terminal shape every failure collapses to:
// no match, zero score, the message set, originals preserved.
func errorResult(mode Mode, expected, actual string, err error) Result {
	return Result{
		Mode:         mode,
		Expected:     expected,
		Actual:       actual,
		ErrorMessage: err.Error(),
	}
}
