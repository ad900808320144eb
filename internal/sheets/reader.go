package sheets

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gauntlet-qa/gauntlet/internal/common"
	"github.com/gauntlet-qa/gauntlet/internal/extract"
	"github.com/gauntlet-qa/gauntlet/internal/model"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// LLMColumns names the workbook columns an LLM suite is read from.
type LLMColumns struct {
	ID                  string
	Input               string
	Expected            string
	SystemMessage       string
	ExpectedExtractPath string
	ActualExtractPath   string
}

// DefaultLLMColumns returns the column names used when a suite does not
// override them.
func DefaultLLMColumns() LLMColumns {
	return LLMColumns{
		ID:                  "ID",
		Input:               "Input",
		Expected:            "Expected",
		SystemMessage:       "System Message",
		ExpectedExtractPath: "Expected Extract Path",
		ActualExtractPath:   "Actual Extract Path",
	}
}

// HTTPColumns names the workbook columns an HTTP suite is read from.
type HTTPColumns struct {
	ID                  string
	Method              string
	Endpoint            string
	Headers             string
	Params              string
	Body                string
	Expected            string
	ExpectedStatus      string
	Timeout             string
	ExpectedExtractPath string
	ActualExtractPath   string
}

// DefaultHTTPColumns returns the column names used when a suite does not
// override them.
func DefaultHTTPColumns() HTTPColumns {
	return HTTPColumns{
		ID:                  "ID",
		Method:              "Method",
		Endpoint:            "Endpoint",
		Headers:             "Headers",
		Params:              "Params",
		Body:                "Body",
		Expected:            "Expected",
		ExpectedStatus:      "Expected Status",
		Timeout:             "Timeout",
		ExpectedExtractPath: "Expected Extract Path",
		ActualExtractPath:   "Actual Extract Path",
	}
}

// Reader loads test cases from one xlsx workbook.
type Reader struct {
	file   *excelize.File
	logger *slog.Logger
	path   string
}

// Open opens the workbook at path. The caller owns the returned Reader
// and must Close it.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return nil, fmt.Errorf("%w: unsupported spreadsheet format %q (want .xlsx)", common.ErrInvalidConfig, ext)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", path, err)
	}

	return &Reader{file: f, logger: logger, path: path}, nil
}

// Close releases the underlying workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Sheets returns the workbook's sheet names in order.
func (r *Reader) Sheets() []string {
	return r.file.GetSheetList()
}

// resolveSheet maps an empty sheet name to the first sheet.
func (r *Reader) resolveSheet(sheet string) (string, error) {
	if sheet != "" {
		return sheet, nil
	}
	list := r.file.GetSheetList()
	if len(list) == 0 {
		return "", fmt.Errorf("%w: workbook %s has no sheets", common.ErrInvalidConfig, r.path)
	}
	return list[0], nil
}

// headerIndex maps trimmed header-row cell values to their column index.
func headerIndex(rows [][]string) map[string]int {
	index := make(map[string]int)
	if len(rows) == 0 {
		return index
	}
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}

func cell(row []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// extractPath normalizes an extract-path cell: blank and spreadsheet
// placeholder values become "$", and syntactically invalid paths are
// logged and reset to "$" so one bad cell cannot sink the whole suite.
func (r *Reader) extractPath(raw, testID string) string {
	if raw == "" || raw == "nan" || raw == "None" {
		return "$"
	}
	if !extract.ValidPath(raw) {
		r.logger.Warn("invalid extract path in spreadsheet, using $",
			"test_id", testID,
			"path", raw)
		return "$"
	}
	return raw
}

// LLMCases reads LLM test cases from sheet. An empty sheet name selects
// the first sheet. Rows with neither input nor expected text are skipped.
func (r *Reader) LLMCases(sheet string, cols LLMColumns) ([]model.TestCase, error) {
	sheet, err := r.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %s has no data rows", common.ErrInvalidConfig, sheet)
	}

	index := headerIndex(rows)
	for _, required := range []string{cols.Input, cols.Expected} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: sheet %s is missing required column %q", common.ErrInvalidConfig, sheet, required)
		}
	}

	var cases []model.TestCase
	for i, row := range rows[1:] {
		input := cell(row, index, cols.Input)
		expected := cell(row, index, cols.Expected)
		if input == "" && expected == "" {
			continue
		}

		id := cell(row, index, cols.ID)
		if id == "" {
			id = fmt.Sprintf("test_%d", i+1)
		}

		cases = append(cases, model.TestCase{
			ID:            id,
			Input:         input,
			Expected:      expected,
			SystemMessage: cell(row, index, cols.SystemMessage),
			Metadata: map[string]string{
				model.MetaExpectedExtractPath: r.extractPath(cell(row, index, cols.ExpectedExtractPath), id),
				model.MetaActualExtractPath:   r.extractPath(cell(row, index, cols.ActualExtractPath), id),
			},
		})
	}

	r.logger.Info("loaded LLM test cases",
		"file", r.path,
		"sheet", sheet,
		"cases", len(cases))
	return cases, nil
}

// HTTPCases reads HTTP test cases from sheet. An empty sheet name selects
// the first sheet. Rows without an endpoint are skipped.
func (r *Reader) HTTPCases(sheet string, cols HTTPColumns) ([]model.HTTPTestCase, error) {
	sheet, err := r.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %s has no data rows", common.ErrInvalidConfig, sheet)
	}

	index := headerIndex(rows)
	if _, ok := index[cols.Endpoint]; !ok {
		return nil, fmt.Errorf("%w: sheet %s is missing required column %q", common.ErrInvalidConfig, sheet, cols.Endpoint)
	}

	var cases []model.HTTPTestCase
	for i, row := range rows[1:] {
		endpoint := cell(row, index, cols.Endpoint)
		if endpoint == "" {
			continue
		}

		id := cell(row, index, cols.ID)
		if id == "" {
			id = fmt.Sprintf("http_test_%d", i+1)
		}

		method := strings.ToUpper(cell(row, index, cols.Method))
		if method == "" {
			method = "GET"
		}

		tc := model.HTTPTestCase{
			ID:       id,
			Method:   method,
			Endpoint: endpoint,
			Body:     cell(row, index, cols.Body),
			Expected: cell(row, index, cols.Expected),
			Headers:  r.stringMapCell(cell(row, index, cols.Headers), id, "headers"),
			Params:   r.stringMapCell(cell(row, index, cols.Params), id, "params"),
			Metadata: map[string]string{
				model.MetaExpectedExtractPath: r.extractPath(cell(row, index, cols.ExpectedExtractPath), id),
				model.MetaActualExtractPath:   r.extractPath(cell(row, index, cols.ActualExtractPath), id),
			},
		}

		if status := cell(row, index, cols.ExpectedStatus); status != "" && status != "nan" {
			code, err := parseStatusCode(status)
			if err != nil {
				r.logger.Warn("invalid expected status in spreadsheet, ignoring",
					"test_id", id,
					"value", status)
			} else {
				tc.ExpectedStatus = code
			}
		}

		if timeout := cell(row, index, cols.Timeout); timeout != "" && timeout != "nan" {
			secs, err := strconv.Atoi(timeout)
			if err != nil || secs < 0 {
				r.logger.Warn("invalid timeout in spreadsheet, ignoring",
					"test_id", id,
					"value", timeout)
			} else {
				tc.TimeoutSeconds = secs
			}
		}

		cases = append(cases, tc)
	}

	r.logger.Info("loaded HTTP test cases",
		"file", r.path,
		"sheet", sheet,
		"cases", len(cases))
	return cases, nil
}

// PathCell is one raw extract-path cell, read without the loaders'
// fallback to "$" so validation can see what the suite actually says.
type PathCell struct {
	TestID string
	Column string
	Path   string
}

// ExtractPathCells returns the raw values of the named path columns for
// every data row. Blank and placeholder cells are omitted.
func (r *Reader) ExtractPathCells(sheet, idColumn string, pathColumns []string) ([]PathCell, error) {
	sheet, err := r.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %s has no data rows", common.ErrInvalidConfig, sheet)
	}

	index := headerIndex(rows)
	var cells []PathCell
	for i, row := range rows[1:] {
		id := cell(row, index, idColumn)
		if id == "" {
			id = fmt.Sprintf("row_%d", i+2)
		}
		for _, column := range pathColumns {
			raw := cell(row, index, column)
			if raw == "" || raw == "nan" || raw == "None" {
				continue
			}
			cells = append(cells, PathCell{TestID: id, Column: column, Path: raw})
		}
	}
	return cells, nil
}

// stringMapCell parses a JSON-object cell into a string map. Malformed
// cells are logged and dropped rather than failing the row.
func (r *Reader) stringMapCell(raw, testID, field string) map[string]string {
	if raw == "" || raw == "nan" {
		return nil
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		r.logger.Warn("malformed JSON object cell in spreadsheet, ignoring",
			"test_id", testID,
			"field", field)
		return nil
	}
	m := make(map[string]string)
	parsed.ForEach(func(key, value gjson.Result) bool {
		m[key.String()] = value.String()
		return true
	})
	return m
}

// parseStatusCode accepts both "200" and the "200.0" form spreadsheet
// tools produce for numeric cells.
func parseStatusCode(s string) (int, error) {
	if code, err := strconv.Atoi(s); err == nil {
		return code, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
