// Package storage persists the reference table in SQLite or Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

// ErrEmptyTable is returned when a load finds no stored entries.
var ErrEmptyTable = errors.New("reference table is empty")

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TxDB is a DB that can start transactions.
type TxDB interface {
	DB
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const schema = `
	CREATE TABLE IF NOT EXISTS faq_entries (
		position    INTEGER PRIMARY KEY,
		question    TEXT NOT NULL,
		answer      TEXT NOT NULL,
		category    TEXT NOT NULL,
		batch_id    TEXT NOT NULL,
		imported_at TIMESTAMP NOT NULL
	)
`

// ImportResult describes a completed ReplaceAll.
type ImportResult struct {
	BatchID    uuid.UUID
	Rows       int
	ImportedAt time.Time
}

// ReferenceRepository stores reference records in load order.
type ReferenceRepository struct {
	db TxDB
}

// NewReferenceRepository creates a new reference repository.
func NewReferenceRepository(db TxDB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Migrate creates the schema if it does not exist.
func (r *ReferenceRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate faq_entries: %w", err)
	}
	return nil
}

// ReplaceAll swaps the stored table for records in a single transaction.
// progress, when non-nil, is called after each inserted row.
func (r *ReferenceRepository) ReplaceAll(ctx context.Context, records []reference.Record, progress func(done int)) (*ImportResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM faq_entries`); err != nil {
		return nil, fmt.Errorf("clear faq_entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO faq_entries (position, question, answer, category, batch_id, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	result := &ImportResult{
		BatchID:    uuid.New(),
		ImportedAt: time.Now().UTC(),
	}
	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			i, rec.Question, rec.Answer, rec.Category,
			result.BatchID.String(), result.ImportedAt,
		); err != nil {
			return nil, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		result.Rows++
		if progress != nil {
			progress(result.Rows)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}

// ListRows returns the stored entries in original order, keyed like dataset rows.
func (r *ReferenceRepository) ListRows(ctx context.Context) ([]reference.Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT question, answer, category
		FROM faq_entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("list faq_entries: %w", err)
	}
	defer rows.Close()

	var out []reference.Row
	for rows.Next() {
		var question, answer, category string
		if err := rows.Scan(&question, &answer, &category); err != nil {
			return nil, err
		}
		out = append(out, reference.Row{
			reference.FieldQuestion: question,
			reference.FieldAnswer:   answer,
			reference.FieldCategory: category,
		})
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (r *ReferenceRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faq_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count faq_entries: %w", err)
	}
	return n, nil
}

// LoadTable reads the stored entries into a reference table.
func (r *ReferenceRepository) LoadTable(ctx context.Context) (*reference.Table, error) {
	rows, err := r.ListRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return reference.LoadTable(rows)
}
