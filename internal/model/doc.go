// Package model defines the value types threaded through the harness:
// test cases loaded from spreadsheets, per-case results, and run-level
// summaries. All types are plain records; behavior lives in the packages
// that produce and consume them.
package model
