// Package sheets loads test suites from xlsx workbooks and exports run
// results back to xlsx. Column mapping is header-driven so suites can
// reorder or omit optional columns without breaking ingestion.
package sheets
