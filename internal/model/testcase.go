package model

import "strings"

// Metadata keys recognized on test cases.
const (
	MetaExpectedExtractPath = "expected_extract_path"
	MetaActualExtractPath   = "actual_extract_path"
)

// TestCase is a single LLM test loaded from a spreadsheet row.
type TestCase struct {
	Metadata      map[string]string `json:"metadata,omitempty"`
	ID            string            `json:"id"`
	Input         string            `json:"input"`
	Expected      string            `json:"expected"`
	SystemMessage string            `json:"system_message,omitempty"`
}

// ExtractPaths returns the expected and actual extraction paths from the
// case metadata, defaulting both to "$" when absent or blank.
func (tc TestCase) ExtractPaths() (expected, actual string) {
	return extractPath(tc.Metadata, MetaExpectedExtractPath), extractPath(tc.Metadata, MetaActualExtractPath)
}

// HTTPTestCase is a single HTTP test loaded from a spreadsheet row.
type HTTPTestCase struct {
	Metadata       map[string]string `json:"metadata,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	ID             string            `json:"id"`
	Method         string            `json:"method"`
	Endpoint       string            `json:"endpoint"`
	Body           string            `json:"body,omitempty"`
	Expected       string            `json:"expected"`
	ExpectedStatus int               `json:"expected_status,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
}

// ExtractPaths returns the expected and actual extraction paths from the
// case metadata, defaulting both to "$" when absent or blank.
func (tc HTTPTestCase) ExtractPaths() (expected, actual string) {
	return extractPath(tc.Metadata, MetaExpectedExtractPath), extractPath(tc.Metadata, MetaActualExtractPath)
}

func extractPath(metadata map[string]string, key string) string {
	v := strings.TrimSpace(metadata[key])
	if v == "" || v == "nan" || v == "None" {
		return "$"
	}
	return v
}
