package banking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BankAccountRepository looks up bank accounts
type BankAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)
	Save(ctx context.Context, account *BankAccount) error
}

// BankTransactionRepository queries and batch-updates statement lines for
// reconciliation windows. Window bounds are inclusive.
type BankTransactionRepository interface {
	Save(ctx context.Context, tx *BankTransaction) error

	// EarliestTransactionDate returns the date of the account's first
	// transaction, or nil when the account has none.
	EarliestTransactionDate(ctx context.Context, accountID uuid.UUID) (*time.Time, error)

	// CountPendingInWindow counts transactions in the window whose
	// explanation status is not yet terminal.
	CountPendingInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (int64, error)

	// UpdateStatusInWindow moves every transaction in the window from one
	// explanation status to another.
	UpdateStatusInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time, from, to ExplanationStatus) error
}

// ReconciliationRepository persists reconciliation outcomes
type ReconciliationRepository interface {
	Save(ctx context.Context, record *ReconciliationRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*ReconciliationRecord, error)

	// LastSuccessful returns the account's most recent non-deleted
	// reconciliation record, or nil when the account has never reconciled.
	LastSuccessful(ctx context.Context, accountID uuid.UUID) (*ReconciliationRecord, error)

	// ExistsForDate reports whether a non-deleted record already covers the
	// given period end for the account.
	ExistsForDate(ctx context.Context, accountID uuid.UUID, endDate time.Time) (bool, error)

	// MarkDeleted soft-deletes a record.
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}
