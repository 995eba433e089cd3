package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalRepository persists journal entries. Save must persist the entry and
// all of its line items in the ambient transaction; a partially written
// journal must never become visible.
type JournalRepository interface {
	Save(ctx context.Context, entry *JournalEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)
	// MarkVoided flags a journal as voided by a reversal. The reversal
	// itself records the linkage through its ReversalOf field.
	MarkVoided(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository looks up chart-of-account categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TransactionCategory, error)
	FindByCode(ctx context.Context, code string) (*TransactionCategory, error)
	Save(ctx context.Context, category *TransactionCategory) error
}

// CategoryBalanceRepository maintains the running-balance projection derived
// from posted journals.
//
// ApplyDelta must be atomic per category: implementations apply the signed
// delta under the category's own critical section or as a database-level
// atomic increment. Two concurrent deltas to the same category serialize;
// deltas to different categories proceed without mutual blocking.
type CategoryBalanceRepository interface {
	ApplyDelta(ctx context.Context, categoryID uuid.UUID, asOf time.Time, delta decimal.Decimal) error
	ClosingBalanceAsOf(ctx context.Context, categoryID uuid.UUID, asOf time.Time) (decimal.Decimal, error)
}

// TransactionManager runs a function inside a storage transaction. The
// context passed to fn carries the transaction; repository calls made with it
// participate in the same all-or-nothing commit.
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
