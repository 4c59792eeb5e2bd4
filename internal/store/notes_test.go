// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wepieces/wepieces/pkg/errutil"
)

func TestNoteRepository_List(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, title FROM notes ORDER BY title`)

	tests := []struct {
		name      string
		setup     func(mock pgxmock.PgxPoolIface, ids []uuid.UUID)
		wantCount int
		wantCode  string
	}{
		{
			name: "returns notes",
			setup: func(mock pgxmock.PgxPoolIface, ids []uuid.UUID) {
				mock.ExpectQuery(query).WillReturnRows(
					pgxmock.NewRows([]string{"id", "title"}).
						AddRow(ids[0].String(), "Buy milk").
						AddRow(ids[1].String(), "Walk the dog"))
			},
			wantCount: 2,
		},
		{
			name: "empty table yields empty slice",
			setup: func(mock pgxmock.PgxPoolIface, _ []uuid.UUID) {
				mock.ExpectQuery(query).WillReturnRows(pgxmock.NewRows([]string{"id", "title"}))
			},
		},
		{
			name: "query error",
			setup: func(mock pgxmock.PgxPoolIface, _ []uuid.UUID) {
				mock.ExpectQuery(query).WillReturnError(errors.New("connection lost"))
			},
			wantCode: "NOTES_LIST_FAILED",
		},
		{
			name: "corrupt id",
			setup: func(mock pgxmock.PgxPoolIface, _ []uuid.UUID) {
				mock.ExpectQuery(query).WillReturnRows(
					pgxmock.NewRows([]string{"id", "title"}).AddRow("bogus", "x"))
			},
			wantCode: "NOTES_LIST_FAILED",
		},
		{
			name: "iteration error",
			setup: func(mock pgxmock.PgxPoolIface, ids []uuid.UUID) {
				mock.ExpectQuery(query).WillReturnRows(
					pgxmock.NewRows([]string{"id", "title"}).
						AddRow(ids[0].String(), "x").
						RowError(0, errors.New("row broke")))
			},
			wantCode: "NOTES_LIST_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			ids := []uuid.UUID{uuid.New(), uuid.New()}
			tt.setup(mock, ids)

			notes, err := NewNoteRepository(mock).List(ctx)
			if tt.wantCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, notes)
				assert.Len(t, notes, tt.wantCount)
				if tt.wantCount > 0 {
					assert.Equal(t, ids[0], notes[0].ID)
					assert.Equal(t, "Buy milk", notes[0].Title)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNoteRepository_Insert(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO notes (id, title) VALUES ($1, $2)`)

	t.Run("inserts", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), "Hello").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		note, err := NewNoteRepository(mock).Insert(ctx, "Hello")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, note.ID)
		assert.Equal(t, "Hello", note.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate title", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), "Hello").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err = NewNoteRepository(mock).Insert(ctx, "Hello")
		assert.ErrorIs(t, err, ErrDuplicate)
		errutil.AssertErrorCode(t, err, "NOTE_EXISTS")
	})

	t.Run("other failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), "Hello").
			WillReturnError(errors.New("read only"))

		_, err = NewNoteRepository(mock).Insert(ctx, "Hello")
		assert.NotErrorIs(t, err, ErrDuplicate)
		errutil.AssertErrorCode(t, err, "NOTE_INSERT_FAILED")
	})
}
