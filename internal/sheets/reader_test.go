package sheets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef(i+1), &row))
	}
	path := filepath.Join(t.TempDir(), "suite.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestOpenRejectsUnsupportedExtension(t *testing.T) {
	_, err := Open("suite.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported spreadsheet format")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.xlsx"), nil)
	require.Error(t, err)
}

func TestLLMCases(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "Input", "Expected", "System Message", "Expected Extract Path", "Actual Extract Path"},
		{"case-1", "what is 2+2", "4", "be terse", "$.answer", "$.result"},
		{"", "capital of France", "Paris", "", "", ""},
		{"", "", "", "", "", ""},
		{"case-4", "list primes", "2 3 5", "", "nan", "None"},
	})

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	cases, err := r.LLMCases("", DefaultLLMColumns())
	require.NoError(t, err)
	require.Len(t, cases, 3, "fully blank row is skipped")

	assert.Equal(t, "case-1", cases[0].ID)
	assert.Equal(t, "what is 2+2", cases[0].Input)
	assert.Equal(t, "4", cases[0].Expected)
	assert.Equal(t, "be terse", cases[0].SystemMessage)
	expPath, actPath := cases[0].ExtractPaths()
	assert.Equal(t, "$.answer", expPath)
	assert.Equal(t, "$.result", actPath)

	assert.Equal(t, "test_2", cases[1].ID, "missing ID falls back to row number")
	expPath, actPath = cases[1].ExtractPaths()
	assert.Equal(t, "$", expPath)
	assert.Equal(t, "$", actPath)

	expPath, actPath = cases[2].ExtractPaths()
	assert.Equal(t, "$", expPath, "nan placeholder becomes $")
	assert.Equal(t, "$", actPath, "None placeholder becomes $")
}

func TestLLMCasesInvalidPathResetToRoot(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "Input", "Expected", "Expected Extract Path", "Actual Extract Path"},
		{"bad-path", "in", "out", "answer", "$.a[0"},
	})

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	cases, err := r.LLMCases("", DefaultLLMColumns())
	require.NoError(t, err)
	require.Len(t, cases, 1)

	expPath, actPath := cases[0].ExtractPaths()
	assert.Equal(t, "$", expPath, "path without $ root is reset")
	assert.Equal(t, "$", actPath, "path with unbalanced bracket is reset")
}

func TestLLMCasesMissingRequiredColumn(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "Input"},
		{"x", "in"},
	})

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	_, err = r.LLMCases("", DefaultLLMColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "Expected"`)
}

func TestLLMCasesEmptySheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "Input", "Expected"},
	})

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	_, err = r.LLMCases("", DefaultLLMColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestHTTPCases(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "Method", "Endpoint", "Headers", "Params", "Body", "Expected", "Expected Status", "Timeout", "Expected Extract Path", "Actual Extract Path"},
		{"h1", "post", "/api/users", `{"X-Token":"abc"}`, `{"page":"2"}`, `{"name":"x"}`, `{"ok":true}`, "201", "10", "$", "$.data"},
		{"", "", "/health", "", "", "", "ok", "200.0", "", "", ""},
		{"skipped", "GET", "", "", "", "", "", "", "", "", ""},
		{"h3", "GET", "/bad-cells", "not-json", "", "", "x", "created", "soon", "", ""},
	})

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	cases, err := r.HTTPCases("", DefaultHTTPColumns())
	require.NoError(t, err)
	require.Len(t, cases, 3, "row without endpoint is skipped")

	assert.Equal(t, "h1", cases[0].ID)
	assert.Equal(t, "POST", cases[0].Method)
	assert.Equal(t, "/api/users", cases[0].Endpoint)
	assert.Equal(t, map[string]string{"X-Token": "abc"}, cases[0].Headers)
	assert.Equal(t, map[string]string{"page": "2"}, cases[0].Params)
	assert.Equal(t, `{"name":"x"}`, cases[0].Body)
	assert.Equal(t, 201, cases[0].ExpectedStatus)
	assert.Equal(t, 10, cases[0].TimeoutSeconds)
	_, actPath := cases[0].ExtractPaths()
	assert.Equal(t, "$.data", actPath)

	assert.Equal(t, "http_test_2", cases[1].ID)
	assert.Equal(t, "GET", cases[1].Method, "method defaults to GET")
	assert.Equal(t, 200, cases[1].ExpectedStatus, "float-formatted status is accepted")

	assert.Nil(t, cases[2].Headers, "malformed header cell is dropped")
	assert.Zero(t, cases[2].ExpectedStatus, "unparseable status is ignored")
	assert.Zero(t, cases[2].TimeoutSeconds, "unparseable timeout is ignored")
}

func TestSheetsListsWorkbookSheets(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "Input", "Expected"},
		{"x", "a", "b"},
	})

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, []string{"Sheet1"}, r.Sheets())
}
