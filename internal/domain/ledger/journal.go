package ledger

import (
	"fmt"
	"time"

	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the currency minor-unit precision all amounts are
// compared and persisted at.
const MinorUnitPlaces int32 = 2

// ReferenceType identifies the business event that produced a journal line
type ReferenceType string

const (
	ReferenceTypeInvoice         ReferenceType = "INVOICE"
	ReferenceTypeExpense         ReferenceType = "EXPENSE"
	ReferenceTypePayroll         ReferenceType = "PAYROLL"
	ReferenceTypeBankTransaction ReferenceType = "BANK_TRANSACTION"
	ReferenceTypeOpeningBalance  ReferenceType = "OPENING_BALANCE"
	ReferenceTypeReversal        ReferenceType = "REVERSAL"
	ReferenceTypeManual          ReferenceType = "MANUAL"
)

// IsValid checks if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeInvoice, ReferenceTypeExpense, ReferenceTypePayroll,
		ReferenceTypeBankTransaction, ReferenceTypeOpeningBalance,
		ReferenceTypeReversal, ReferenceTypeManual:
		return true
	}
	return false
}

// JournalLineItem is one debit or credit against a category. Exactly one of
// Debit/Credit is non-zero; both are non-negative.
type JournalLineItem struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Memo       string
}

// NewDebitLine creates a line item debiting the category
func NewDebitLine(categoryID uuid.UUID, amount decimal.Decimal, memo string) JournalLineItem {
	return JournalLineItem{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Debit:      amount,
		Credit:     decimal.Zero,
		Memo:       memo,
	}
}

// NewCreditLine creates a line item crediting the category
func NewCreditLine(categoryID uuid.UUID, amount decimal.Decimal, memo string) JournalLineItem {
	return JournalLineItem{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Debit:      decimal.Zero,
		Credit:     amount,
		Memo:       memo,
	}
}

func (l JournalLineItem) validate() error {
	if l.CategoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Line item requires a category")
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Line item amounts cannot be negative")
	}
	debitSet := !l.Debit.IsZero()
	creditSet := !l.Credit.IsZero()
	if debitSet == creditSet {
		return shared.NewDomainError("INVALID_LINE_ITEM",
			"Line item must carry exactly one of debit or credit")
	}
	return nil
}

// swapped returns a copy of the line with debit and credit exchanged
func (l JournalLineItem) swapped() JournalLineItem {
	return JournalLineItem{
		ID:         uuid.New(),
		CategoryID: l.CategoryID,
		Debit:      l.Credit,
		Credit:     l.Debit,
		Memo:       l.Memo,
	}
}

// JournalEntry is an atomic, balanced set of line items. Entries are
// append-only: once posted they are never mutated, only voided by posting an
// offsetting reversal.
type JournalEntry struct {
	ID              uuid.UUID
	ReferenceType   ReferenceType
	ReferenceID     string
	Lines           []JournalLineItem
	TransactionDate time.Time
	CreatedBy       string
	PostedAt        time.Time
	Voided          bool
	ReversalOf      *uuid.UUID
}

// NewJournalEntry builds and validates a journal. It enforces the double-entry
// invariant: at least two line items, each carrying exactly one side, with
// total debits equal to total credits at minor-unit precision.
func NewJournalEntry(
	refType ReferenceType,
	refID string,
	transactionDate time.Time,
	createdBy string,
	lines []JournalLineItem,
) (*JournalEntry, error) {
	if !refType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Unknown reference type: "+string(refType))
	}
	if createdBy == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Journal requires a creator")
	}

	entry := &JournalEntry{
		ID:              uuid.New(),
		ReferenceType:   refType,
		ReferenceID:     refID,
		Lines:           lines,
		TransactionDate: transactionDate,
		CreatedBy:       createdBy,
		PostedAt:        time.Now(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate re-checks the double-entry invariant. The constructor runs it once;
// the poster runs it again at the posting boundary since callers may hold a
// journal across arbitrary code paths before posting.
func (j *JournalEntry) Validate() error {
	if len(j.Lines) < 2 {
		return shared.ErrEmptyJournal
	}
	for _, line := range j.Lines {
		if err := line.validate(); err != nil {
			return err
		}
	}
	if !j.IsBalanced() {
		return &shared.DomainError{
			Code: shared.ErrUnbalancedJournal.Code,
			Message: fmt.Sprintf("Journal debits %s do not equal credits %s",
				j.TotalDebits().StringFixed(MinorUnitPlaces),
				j.TotalCredits().StringFixed(MinorUnitPlaces)),
		}
	}
	return nil
}

// TotalDebits sums the debit amounts across all line items
func (j *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range j.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// TotalCredits sums the credit amounts across all line items
func (j *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range j.Lines {
		total = total.Add(line.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits at minor-unit precision
func (j *JournalEntry) IsBalanced() bool {
	debits := j.TotalDebits().Round(MinorUnitPlaces)
	credits := j.TotalCredits().Round(MinorUnitPlaces)
	return debits.Equal(credits)
}

// Reversed builds the offsetting journal for this entry: every line's debit
// and credit are swapped and the new entry references the original. The
// original entry is untouched.
func (j *JournalEntry) Reversed(createdBy string) (*JournalEntry, error) {
	if j.Voided {
		return nil, shared.ErrJournalVoided
	}
	swapped := make([]JournalLineItem, len(j.Lines))
	for i, line := range j.Lines {
		swapped[i] = line.swapped()
	}
	reversal, err := NewJournalEntry(
		ReferenceTypeReversal,
		j.ID.String(),
		j.TransactionDate,
		createdBy,
		swapped,
	)
	if err != nil {
		return nil, err
	}
	original := j.ID
	reversal.ReversalOf = &original
	return reversal, nil
}
