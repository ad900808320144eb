// Package storage persists run history in SQLite so past pass rates can
// be compared across suite revisions.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/gauntlet-qa/gauntlet/internal/model"
)

// RunStore is a SQLite-backed store of runs and their per-case results.
type RunStore struct {
	db     *sql.DB
	dbPath string
}

// StoredResult is the per-case slice of a run kept in history. Full
// payloads live in report files; history keeps what trend queries need.
type StoredResult struct {
	TestID   string  `json:"test_id"`
	Mode     string  `json:"mode"`
	Error    string  `json:"error,omitempty"`
	Details  string  `json:"details,omitempty"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
	IsMatch  bool    `json:"is_match"`
}

// New opens (or creates) the run store at dbPath.
func New(dbPath string) (*RunStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &RunStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// SaveLLMRun persists an LLM run summary and its per-case results in one
// transaction.
func (s *RunStore) SaveLLMRun(ctx context.Context, summary model.RunSummary, results []model.TestResult) error {
	stored := make([]StoredResult, len(results))
	for i, r := range results {
		stored[i] = StoredResult{
			TestID:   r.TestCase.ID,
			Mode:     string(r.Comparison.Mode),
			Error:    firstNonEmpty(r.Response.Error, r.Comparison.ErrorMessage),
			Details:  marshalDetails(r.Comparison.Details),
			Score:    r.Comparison.Score,
			Position: i,
			IsMatch:  r.Comparison.IsMatch,
		}
	}
	return s.saveRun(ctx, summary, stored)
}

// SaveHTTPRun persists an HTTP run summary and its per-case results in
// one transaction.
func (s *RunStore) SaveHTTPRun(ctx context.Context, summary model.RunSummary, results []model.HTTPTestResult) error {
	stored := make([]StoredResult, len(results))
	for i, r := range results {
		stored[i] = StoredResult{
			TestID:   r.TestCase.ID,
			Mode:     string(r.Comparison.Mode),
			Error:    firstNonEmpty(r.Response.Error, r.Comparison.ErrorMessage),
			Details:  marshalDetails(r.Comparison.Details),
			Score:    r.Comparison.Score,
			Position: i,
			IsMatch:  r.Comparison.IsMatch,
		}
	}
	return s.saveRun(ctx, summary, stored)
}

func (s *RunStore) saveRun(ctx context.Context, summary model.RunSummary, results []StoredResult) error {
	if summary.RunID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, kind, mode, started_at,
			total, passed, failed, errors, pass_rate,
			avg_similarity, min_similarity, max_similarity,
			avg_response_time_ms, total_tokens, total_duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.Kind, summary.Mode, summary.StartedAt,
		summary.Total, summary.Passed, summary.Failed, summary.Errors, summary.PassRate,
		summary.AvgSimilarity, summary.MinSimilarity, summary.MaxSimilarity,
		summary.AvgResponseTime.Milliseconds(), summary.TotalTokens, summary.TotalDuration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", summary.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, position, test_id, mode, is_match, score, error, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, summary.RunID, r.Position, r.TestID, r.Mode, r.IsMatch, r.Score, r.Error, r.Details); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", r.TestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", summary.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns all runs.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	query := `
		SELECT id, kind, mode, started_at,
			total, passed, failed, errors, pass_rate,
			avg_similarity, min_similarity, max_similarity,
			avg_response_time_ms, total_tokens, total_duration_ms
		FROM runs
		ORDER BY started_at DESC, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunSummary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by id.
func (s *RunStore) GetRun(ctx context.Context, runID string) (model.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, mode, started_at,
			total, passed, failed, errors, pass_rate,
			avg_similarity, min_similarity, max_similarity,
			avg_response_time_ms, total_tokens, total_duration_ms
		FROM runs WHERE id = ?`, runID)
	summary, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunSummary{}, fmt.Errorf("run %s not found", runID)
	}
	return summary, err
}

// RunResults returns the per-case results of a run in input order.
func (s *RunStore) RunResults(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, test_id, mode, is_match, score, error, details
		FROM results WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var results []StoredResult
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(&r.Position, &r.TestID, &r.Mode, &r.IsMatch, &r.Score, &r.Error, &r.Details); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.RunSummary, error) {
	var s model.RunSummary
	var avgResponseMs, totalDurationMs int64
	err := row.Scan(
		&s.RunID, &s.Kind, &s.Mode, &s.StartedAt,
		&s.Total, &s.Passed, &s.Failed, &s.Errors, &s.PassRate,
		&s.AvgSimilarity, &s.MinSimilarity, &s.MaxSimilarity,
		&avgResponseMs, &s.TotalTokens, &totalDurationMs)
	if err != nil {
		return model.RunSummary{}, err
	}
	s.AvgResponseTime = time.Duration(avgResponseMs) * time.Millisecond
	s.TotalDuration = time.Duration(totalDurationMs) * time.Millisecond
	return s, nil
}

func marshalDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	data, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
