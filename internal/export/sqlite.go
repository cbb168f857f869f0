package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

const createTable = `CREATE TABLE IF NOT EXISTS results (
	source_filename TEXT PRIMARY KEY,
	title           TEXT,
	author          TEXT,
	year            TEXT,
	output_filename TEXT,
	copied          INTEGER NOT NULL DEFAULT 0,
	error           TEXT,
	error_kind      TEXT,
	provider        TEXT,
	model           TEXT,
	pages           INTEGER,
	run_id          TEXT,
	timestamp       TEXT
)`

const upsertRow = `INSERT INTO results (
	source_filename, title, author, year, output_filename, copied,
	error, error_kind, provider, model, pages, run_id, timestamp
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_filename) DO UPDATE SET
	title = excluded.title,
	author = excluded.author,
	year = excluded.year,
	output_filename = excluded.output_filename,
	copied = excluded.copied,
	error = excluded.error,
	error_kind = excluded.error_kind,
	provider = excluded.provider,
	model = excluded.model,
	pages = excluded.pages,
	run_id = excluded.run_id,
	timestamp = excluded.timestamp`

// WriteSQLite upserts the records into the results table of the database at path,
// creating both when missing.
func WriteSQLite(ctx context.Context, path string, records []models.ExtractionRecord) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("sqlite create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRow)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows(records) {
		if _, err := stmt.ExecContext(ctx,
			r.SourceFilename, r.Title, r.Author, r.Year, r.OutputFilename, r.Copied,
			r.Error, r.ErrorKind, r.Provider, r.Model, r.Pages, r.RunID, r.Timestamp,
		); err != nil {
			return fmt.Errorf("sqlite insert %s: %w", r.SourceFilename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}
