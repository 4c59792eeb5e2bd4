// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// ErrDuplicate is wrapped when an insert collides with a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

// Note is a read-only record listed on the home page.
type Note struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// poolIface is the subset of pgxpool.Pool used by NoteRepository.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NoteRepository reads and seeds notes.
type NoteRepository struct {
	pool poolIface
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(pool poolIface) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// List returns every note ordered by title.
func (r *NoteRepository) List(ctx context.Context) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title FROM notes ORDER BY title`)
	if err != nil {
		return nil, oops.Code("NOTES_LIST_FAILED").With("operation", "list notes").Wrap(err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var (
			idStr string
			n     Note
		)
		if err := rows.Scan(&idStr, &n.Title); err != nil {
			return nil, oops.Code("NOTES_LIST_FAILED").With("operation", "scan note row").Wrap(err)
		}
		if n.ID, err = uuid.Parse(idStr); err != nil {
			return nil, oops.Code("NOTES_LIST_FAILED").With("id", idStr).Wrap(err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("NOTES_LIST_FAILED").With("operation", "iterate notes").Wrap(err)
	}
	return notes, nil
}

// Insert adds a note with a fresh id. A title that already exists wraps
// ErrDuplicate.
func (r *NoteRepository) Insert(ctx context.Context, title string) (Note, error) {
	n := Note{ID: uuid.New(), Title: title}
	if _, err := r.pool.Exec(ctx, `INSERT INTO notes (id, title) VALUES ($1, $2)`, n.ID.String(), title); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Note{}, oops.Code("NOTE_EXISTS").With("title", title).Wrap(ErrDuplicate)
		}
		return Note{}, oops.Code("NOTE_INSERT_FAILED").With("title", title).Wrap(err)
	}
	return n, nil
}
