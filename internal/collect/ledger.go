// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

const ledgerFile = "ledger.db"

// Ledger records finished batches in a SQLite database so collection
// history survives across runs.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database under dir, creating
// the schema if it does not exist.
func OpenLedger(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	path := filepath.Join(dir, ledgerFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			total INTEGER NOT NULL,
			succeeded INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			batch_id TEXT NOT NULL REFERENCES batches(id),
			position INTEGER NOT NULL,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			score INTEGER,
			project_id TEXT,
			document_path TEXT,
			detail TEXT,
			PRIMARY KEY (batch_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordBatch stores the report and its outcomes in one transaction.
func (l *Ledger) RecordBatch(ctx context.Context, report *types.BatchReport) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, started_at, finished_at, total, succeeded)
		 VALUES (?, ?, ?, ?, ?)`,
		report.BatchID,
		report.StartedAt.Format(time.RFC3339Nano),
		report.FinishedAt.Format(time.RFC3339Nano),
		report.Summary.Total(),
		report.Summary.Success,
	)
	if err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (batch_id, position, query, status, score, project_id, document_path, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range report.Outcomes {
		docPath := ""
		if o.Document != nil {
			docPath = o.Document.Path
		}
		if _, err := stmt.ExecContext(ctx,
			report.BatchID, i, o.Query, string(o.Status),
			o.Score, o.ProjectID, docPath, o.Detail,
		); err != nil {
			return fmt.Errorf("inserting outcome %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// BatchSummary is one row of collection history.
type BatchSummary struct {
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
}

// History returns the most recent batches, newest first.
func (l *Ledger) History(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, total, succeeded
		 FROM batches ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var out []BatchSummary
	for rows.Next() {
		var b BatchSummary
		var started, finished string
		if err := rows.Scan(&b.BatchID, &started, &finished, &b.Total, &b.Succeeded); err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		b.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		b.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Outcomes returns a batch's outcomes in input order.
func (l *Ledger) Outcomes(ctx context.Context, batchID string) ([]types.Outcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT query, status, score, project_id, document_path, detail
		 FROM outcomes WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var out []types.Outcome
	for rows.Next() {
		var o types.Outcome
		var status, docPath string
		if err := rows.Scan(&o.Query, &status, &o.Score, &o.ProjectID, &docPath, &o.Detail); err != nil {
			return nil, fmt.Errorf("scanning outcome row: %w", err)
		}
		o.Status = types.OutcomeStatus(status)
		if docPath != "" {
			o.Document = &types.Document{Path: docPath}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
