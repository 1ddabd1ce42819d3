// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed search runs to a local SQLite
// database so a review's searches can be reloaded and re-exported without
// re-querying the services.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// Store manages the run archive database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at path, creating the
// schema if it does not exist.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			service TEXT NOT NULL,
			spec TEXT,
			warnings INTEGER NOT NULL,
			seed_failures INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_records (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			identifier TEXT,
			record TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_records_identifier ON run_records(identifier)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunMeta summarizes one archived run.
type RunMeta struct {
	ID           string
	Kind         string
	Service      string
	Records      int
	Warnings     int
	SeedFailures int
	CreatedAt    time.Time
}

// SaveRun archives a finished run: its provenance row plus one row per
// record in collection order. spec is stored as JSON for later inspection
// and may be nil for snowball runs.
func (s *Store) SaveRun(ctx context.Context, kind, serviceName string, spec any, res *search.Result, extract func(types.RawRecord) (types.Identifier, bool)) error {
	var specJSON []byte
	if spec != nil {
		var err error
		specJSON, err = json.Marshal(spec)
		if err != nil {
			return fmt.Errorf("marshaling spec: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, service, spec, warnings, seed_failures, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.Audit.RunID.String(), kind, serviceName, string(specJSON),
		len(res.Audit.Warnings()), len(res.Audit.Failures()),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_records (run_id, position, identifier, record) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range res.Collection.Records() {
		recJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record %d: %w", i, err)
		}
		id, _ := extract(rec)
		if _, err := stmt.ExecContext(ctx, res.Audit.RunID.String(), i, string(id), string(recJSON)); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns archived run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.kind, r.service, r.warnings, r.seed_failures, r.created_at,
		        (SELECT count(*) FROM run_records rr WHERE rr.run_id = r.id)
		 FROM runs r ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		var m RunMeta
		var created string
		if err := rows.Scan(&m.ID, &m.Kind, &m.Service, &m.Warnings, &m.SeedFailures, &created, &m.Records); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, created)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// LoadRecords returns the archived records of one run in their original
// collection order.
func (s *Store) LoadRecords(ctx context.Context, runID string) ([]types.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM run_records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []types.RawRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		var rec types.RawRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("parsing archived record: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("run %s not found in archive", runID)
	}
	return records, rows.Err()
}
