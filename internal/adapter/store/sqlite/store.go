// Package sqlite persists detection run history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/smartreview/detection/internal/domain"
	"github.com/smartreview/detection/internal/usecase/detect"
)

// Store records completed detection runs and their issues in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per detection run
	CREATE TABLE IF NOT EXISTS detection_runs (
		run_id TEXT PRIMARY KEY,
		request_id TEXT,
		status TEXT NOT NULL,
		total_files INTEGER NOT NULL,
		files_analyzed INTEGER NOT NULL,
		total_issues INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		estimated_cost REAL NOT NULL DEFAULT 0.0,
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);

	-- Issues reported by each run
	CREATE TABLE IF NOT EXISTS issues (
		issue_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence REAL NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		description TEXT,
		code_snippet TEXT,
		language TEXT,
		FOREIGN KEY (run_id) REFERENCES detection_runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);
	CREATE INDEX IF NOT EXISTS idx_issues_file ON issues(file, line);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON detection_runs(started_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SaveRun persists one completed run and all of its issues in a transaction.
func (s *Store) SaveRun(ctx context.Context, resp detect.Response) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO detection_runs
			(run_id, request_id, status, total_files, files_analyzed, total_issues,
			 total_tokens, estimated_cost, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, resp.RequestID, resp.Status,
		resp.Summary.TotalFiles, resp.Summary.FilesAnalyzed, resp.Summary.TotalIssues,
		resp.Summary.TotalTokens, resp.Summary.EstimatedCost,
		resp.StartedAt.Unix(), resp.CompletedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO issues
			(issue_id, run_id, type, category, severity, confidence, file, line,
			 description, code_snippet, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for _, issue := range resp.Issues {
		issueID := issue.ID
		if issueID == "" {
			issueID = uuid.NewString()
		}
		_, err = stmt.ExecContext(ctx,
			issueID, runID, issue.Type, issue.Category, issue.Severity,
			issue.Confidence, issue.File, issue.Line,
			issue.Description, issue.CodeSnippet, issue.Language)
		if err != nil {
			return fmt.Errorf("failed to insert issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RunRecord summarizes one stored run.
type RunRecord struct {
	RunID         string
	RequestID     string
	Status        string
	TotalFiles    int
	FilesAnalyzed int
	TotalIssues   int
	TotalTokens   int
	EstimatedCost float64
	StartedAt     time.Time
	CompletedAt   time.Time
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, request_id, status, total_files, files_analyzed,
		       total_issues, total_tokens, estimated_cost, started_at, completed_at
		FROM detection_runs
		ORDER BY started_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, completed int64
		if err := rows.Scan(&rec.RunID, &rec.RequestID, &rec.Status,
			&rec.TotalFiles, &rec.FilesAnalyzed, &rec.TotalIssues,
			&rec.TotalTokens, &rec.EstimatedCost, &started, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.CompletedAt = time.Unix(completed, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RunIssues returns the issues stored for one run, in insertion order.
func (s *Store) RunIssues(ctx context.Context, runID string) ([]domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue_id, type, category, severity, confidence, file, line,
		       description, code_snippet, language
		FROM issues
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(&issue.ID, &issue.Type, &issue.Category, &issue.Severity,
			&issue.Confidence, &issue.File, &issue.Line,
			&issue.Description, &issue.CodeSnippet, &issue.Language); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
