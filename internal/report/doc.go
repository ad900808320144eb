// Package report renders finished runs as JSON documents, HTML pages,
// xlsx workbooks, and styled terminal summaries. It consumes result
// records read-only.
package report
