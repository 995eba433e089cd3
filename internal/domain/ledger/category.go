package ledger

import (
	"time"

	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountKind classifies a transaction category within the chart of accounts.
// The kind is a closed set so debit/credit polarity is an exhaustive lookup
// rather than a runtime string comparison.
type AccountKind string

const (
	AccountKindAsset     AccountKind = "ASSET"
	AccountKindLiability AccountKind = "LIABILITY"
	AccountKindEquity    AccountKind = "EQUITY"
	AccountKindIncome    AccountKind = "INCOME"
	AccountKindExpense   AccountKind = "EXPENSE"
)

// IsValid checks if the kind is a valid AccountKind
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindAsset, AccountKindLiability, AccountKindEquity,
		AccountKindIncome, AccountKindExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountKind
func (k AccountKind) String() string {
	return string(k)
}

// BalanceSide indicates which side of a journal entry increases a category's balance.
type BalanceSide string

const (
	BalanceSideDebit  BalanceSide = "DEBIT"
	BalanceSideCredit BalanceSide = "CREDIT"
)

// NormalBalance returns the side on which entries increase balances of this kind.
// Assets and expenses grow on the debit side; liabilities, equity and income
// grow on the credit side.
func (k AccountKind) NormalBalance() BalanceSide {
	switch k {
	case AccountKindAsset, AccountKindExpense:
		return BalanceSideDebit
	case AccountKindLiability, AccountKindEquity, AccountKindIncome:
		return BalanceSideCredit
	}
	// Unreachable for categories constructed through NewTransactionCategory.
	return BalanceSideDebit
}

// Well-known category codes used by system-generated journals.
const (
	CategoryCodeOpeningBalanceOffset = "3999" // equity offset for opening balance seeding
	CategoryCodeSalaryExpense        = "6100"
	CategoryCodeSalariesPayable      = "2300"
)

// TransactionCategory is one account in the chart of accounts. Balances are
// never written to it directly; they are derived from posted journals.
type TransactionCategory struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Kind      AccountKind
	CreatedAt time.Time
}

// NewTransactionCategory creates a category with a validated kind
func NewTransactionCategory(code, name string, kind AccountKind) (*TransactionCategory, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Unknown account kind: "+string(kind))
	}
	return &TransactionCategory{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now(),
	}, nil
}
