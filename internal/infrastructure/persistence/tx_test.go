package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpleaccounts/backend/internal/domain/shared"
)

func TestGormTransactionManager(t *testing.T) {
	db := setupTestDB(t)
	tm := NewGormTransactionManager(db)
	journals := NewGormJournalRepository(db)
	ctx := context.Background()

	t.Run("commit on nil", func(t *testing.T) {
		entry := testJournal(t)
		err := tm.InTransaction(ctx, func(txCtx context.Context) error {
			return journals.Save(txCtx, entry)
		})
		require.NoError(t, err)

		_, err = journals.FindByID(ctx, entry.ID)
		assert.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		entry := testJournal(t)
		boom := errors.New("boom")
		err := tm.InTransaction(ctx, func(txCtx context.Context) error {
			if err := journals.Save(txCtx, entry); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = journals.FindByID(ctx, entry.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("nested call joins the open transaction", func(t *testing.T) {
		entry := testJournal(t)
		err := tm.InTransaction(ctx, func(outer context.Context) error {
			return tm.InTransaction(outer, func(inner context.Context) error {
				assert.Same(t, txFromContext(outer), txFromContext(inner))
				if err := journals.Save(inner, entry); err != nil {
					return err
				}
				// The outer transaction has not committed yet, but the
				// joined handle sees the write.
				_, err := journals.FindByID(inner, entry.ID)
				return err
			})
		})
		require.NoError(t, err)
	})

	t.Run("inner error rolls back the whole transaction", func(t *testing.T) {
		entry := testJournal(t)
		boom := errors.New("inner failure")
		err := tm.InTransaction(ctx, func(outer context.Context) error {
			if err := journals.Save(outer, entry); err != nil {
				return err
			}
			return tm.InTransaction(outer, func(context.Context) error {
				return boom
			})
		})
		assert.ErrorIs(t, err, boom)

		_, err = journals.FindByID(ctx, entry.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDBFromFallsBackOutsideTransaction(t *testing.T) {
	db := setupTestDB(t)
	assert.Same(t, db, dbFrom(context.Background(), db))
}
