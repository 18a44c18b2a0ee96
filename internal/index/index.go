// Package index records conversion runs and per-document results in a
// SQLite database, so a corpus build can be audited or diffed later.
package index

import (
	"context"
	"database/sql"
	"time"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
	"github.com/FocuswithJustin/bsfbeios/internal/logging"
	"github.com/FocuswithJustin/bsfbeios/internal/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	corpus     TEXT NOT NULL,
	layout     TEXT NOT NULL,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	name     TEXT NOT NULL,
	split    TEXT NOT NULL DEFAULT '',
	tokens   INTEGER NOT NULL DEFAULT 0,
	entities INTEGER NOT NULL DEFAULT 0,
	digest   TEXT NOT NULL DEFAULT '',
	error    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, name)
);
`

// Run is one conversion run.
type Run struct {
	ID        string    `json:"id"`
	Corpus    string    `json:"corpus"`
	Layout    string    `json:"layout"`
	StartedAt time.Time `json:"started_at"`
}

// Document is the outcome of converting one document pair in a run.
type Document struct {
	RunID    string `json:"run_id"`
	Name     string `json:"name"`
	Split    string `json:"split,omitempty"`
	Tokens   int    `json:"tokens"`
	Entities int    `json:"entities"`
	Digest   string `json:"blake3,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Index is an open index database.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index at path.
func Open(path string) (*Index, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open index", path, err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("create schema", path, err)
	}
	logging.Debug("index_opened", "path", path, "driver", sqlite.DriverName())
	return &Index{db: db}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// RecordRun inserts a run.
func (ix *Index) RecordRun(ctx context.Context, r Run) error {
	_, err := ix.db.ExecContext(ctx,
		`INSERT INTO runs (id, corpus, layout, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Corpus, r.Layout, r.StartedAt.UTC().Format(time.RFC3339))
	return errors.Wrapf(err, "failed to record run %s", r.ID)
}

// RecordDocuments inserts documents in one transaction.
func (ix *Index) RecordDocuments(ctx context.Context, docs []Document) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO documents (run_id, name, split, tokens, entities, digest, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.RunID, d.Name, d.Split, d.Tokens, d.Entities, d.Digest, d.Error); err != nil {
			return errors.Wrapf(err, "failed to record document %s", d.Name)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit documents")
}

// Documents returns the documents of a run ordered by name.
func (ix *Index) Documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT run_id, name, split, tokens, entities, digest, error
		 FROM documents WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query documents")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.RunID, &d.Name, &d.Split, &d.Tokens, &d.Entities, &d.Digest, &d.Error); err != nil {
			return nil, errors.Wrap(err, "failed to scan document")
		}
		docs = append(docs, d)
	}
	return docs, errors.Wrap(rows.Err(), "failed to read documents")
}

// Runs returns all recorded runs, oldest first.
func (ix *Index) Runs(ctx context.Context) ([]Run, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT id, corpus, layout, started_at FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Corpus, &r.Layout, &started); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "failed to read runs")
}
