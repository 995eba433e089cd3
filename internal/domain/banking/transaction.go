package banking

import (
	"time"

	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExplanationStatus tracks how far a bank transaction has been matched to
// ledger activity.
type ExplanationStatus string

const (
	ExplanationStatusUnexplained        ExplanationStatus = "UNEXPLAINED"
	ExplanationStatusPartiallyExplained ExplanationStatus = "PARTIALLY_EXPLAINED"
	ExplanationStatusExplained          ExplanationStatus = "EXPLAINED"
	ExplanationStatusReconciled         ExplanationStatus = "RECONCILED"
)

// IsValid checks if the status is a valid ExplanationStatus
func (s ExplanationStatus) IsValid() bool {
	switch s {
	case ExplanationStatusUnexplained, ExplanationStatusPartiallyExplained,
		ExplanationStatusExplained, ExplanationStatusReconciled:
		return true
	}
	return false
}

// String returns the string representation of ExplanationStatus
func (s ExplanationStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the transaction needs no further explanation
// before its window can be reconciled.
func (s ExplanationStatus) IsTerminal() bool {
	return s == ExplanationStatusExplained || s == ExplanationStatusReconciled
}

// EntrySide marks a bank transaction as money in or money out
type EntrySide string

const (
	EntrySideDebit  EntrySide = "DEBIT"
	EntrySideCredit EntrySide = "CREDIT"
)

// BankTransaction is a single statement line on a bank account
type BankTransaction struct {
	ID            uuid.UUID
	BankAccountID uuid.UUID
	Date          time.Time
	Amount        decimal.Decimal
	Side          EntrySide
	Description   string
	Status        ExplanationStatus
	CreatedBy     string
	CreatedAt     time.Time
}

// NewBankTransaction creates an unexplained transaction
func NewBankTransaction(
	bankAccountID uuid.UUID,
	date time.Time,
	amount decimal.Decimal,
	side EntrySide,
	description, createdBy string,
) (*BankTransaction, error) {
	if bankAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Transaction requires a bank account")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Transaction amount cannot be negative")
	}
	if side != EntrySideDebit && side != EntrySideCredit {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Unknown entry side: "+string(side))
	}
	return &BankTransaction{
		ID:            uuid.New(),
		BankAccountID: bankAccountID,
		Date:          date,
		Amount:        amount,
		Side:          side,
		Description:   description,
		Status:        ExplanationStatusUnexplained,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}, nil
}

// BankAccount links a bank account to the ledger category its balance is
// derived from.
type BankAccount struct {
	ID         uuid.UUID
	Name       string
	Number     string
	CategoryID uuid.UUID
	CreatedAt  time.Time
}

// NewBankAccount creates a bank account backed by a ledger category
func NewBankAccount(name, number string, categoryID uuid.UUID) (*BankAccount, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank account requires a name")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank account requires a ledger category")
	}
	return &BankAccount{
		ID:         uuid.New(),
		Name:       name,
		Number:     number,
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
	}, nil
}
