package banking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the state of a reconciliation attempt for an
// (account, period-end) pair.
//
//	UNRECONCILED -> LOCKED -> RECONCILED   success path (terminal)
//	LOCKED -> FAILED -> UNRECONCILED       failure/abort path
//
// LOCKED is represented by the live lease on the attempt's key rather than a
// persisted row; only completed attempts produce a ReconciliationRecord.
type ReconciliationStatus string

const (
	ReconciliationStatusUnreconciled ReconciliationStatus = "UNRECONCILED"
	ReconciliationStatusLocked       ReconciliationStatus = "LOCKED"
	ReconciliationStatusReconciled   ReconciliationStatus = "RECONCILED"
	ReconciliationStatusFailed       ReconciliationStatus = "FAILED"
)

// IsValid checks if the status is a valid ReconciliationStatus
func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case ReconciliationStatusUnreconciled, ReconciliationStatusLocked,
		ReconciliationStatusReconciled, ReconciliationStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the reconciliation reached its final state
func (s ReconciliationStatus) IsTerminal() bool {
	return s == ReconciliationStatusReconciled
}

// ReconciliationRecord is the durable outcome of a successful reconciliation:
// the window it covered, the balance the bank declared, and the balance the
// ledger derived at commit time. Records are never mutated after creation
// except soft-delete, which also reverts the transaction-status side effects
// the reconciliation caused.
type ReconciliationRecord struct {
	ID              uuid.UUID
	BankAccountID   uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	DeclaredClosing decimal.Decimal
	LedgerClosing   decimal.Decimal
	Status          ReconciliationStatus
	CreatedBy       string
	CreatedAt       time.Time
	Deleted         bool
}

// NewReconciliationRecord creates a committed reconciliation record
func NewReconciliationRecord(
	bankAccountID uuid.UUID,
	startDate, endDate time.Time,
	declaredClosing, ledgerClosing decimal.Decimal,
	createdBy string,
) *ReconciliationRecord {
	return &ReconciliationRecord{
		ID:              uuid.New(),
		BankAccountID:   bankAccountID,
		StartDate:       startDate,
		EndDate:         endDate,
		DeclaredClosing: declaredClosing,
		LedgerClosing:   ledgerClosing,
		Status:          ReconciliationStatusReconciled,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now(),
	}
}
