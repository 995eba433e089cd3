package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simpleaccounts/backend/internal/domain/ledger"
)

// TransactionCategoryModel is the persistence model for ledger categories.
type TransactionCategoryModel struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Code      string             `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name      string             `gorm:"type:varchar(100);not null"`
	Kind      ledger.AccountKind `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionCategoryModel) TableName() string {
	return "transaction_categories"
}

// ToDomain converts the persistence model to a domain category.
func (m *TransactionCategoryModel) ToDomain() *ledger.TransactionCategory {
	return &ledger.TransactionCategory{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Kind:      m.Kind,
		CreatedAt: m.CreatedAt,
	}
}

// CategoryModelFromDomain converts a domain category to its persistence model.
func CategoryModelFromDomain(c *ledger.TransactionCategory) *TransactionCategoryModel {
	return &TransactionCategoryModel{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Kind:      c.Kind,
		CreatedAt: c.CreatedAt,
	}
}

// JournalEntryModel is the persistence model for posted journals. Rows are
// append-only: corrections happen through reversal journals, never updates,
// except for the voided flag set when a reversal is posted.
type JournalEntryModel struct {
	ID              uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ReferenceType   ledger.ReferenceType   `gorm:"type:varchar(30);not null;index"`
	ReferenceID     string                 `gorm:"type:varchar(100);not null;index"`
	TransactionDate time.Time              `gorm:"not null;index"`
	CreatedBy       string                 `gorm:"type:varchar(100);not null"`
	PostedAt        time.Time              `gorm:"not null"`
	Voided          bool                   `gorm:"not null;default:false"`
	ReversalOf      *uuid.UUID             `gorm:"type:uuid;index"`
	Lines           []JournalLineItemModel `gorm:"foreignKey:JournalEntryID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalLineItemModel is the persistence model for a single journal line.
type JournalLineItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoryID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Debit          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Credit         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Memo           string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalLineItemModel) TableName() string {
	return "journal_line_items"
}

// ToDomain converts the persistence model to a domain journal entry.
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	lines := make([]ledger.JournalLineItem, 0, len(m.Lines))
	for _, line := range m.Lines {
		lines = append(lines, ledger.JournalLineItem{
			ID:         line.ID,
			CategoryID: line.CategoryID,
			Debit:      line.Debit,
			Credit:     line.Credit,
			Memo:       line.Memo,
		})
	}
	return &ledger.JournalEntry{
		ID:              m.ID,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Lines:           lines,
		TransactionDate: m.TransactionDate,
		CreatedBy:       m.CreatedBy,
		PostedAt:        m.PostedAt,
		Voided:          m.Voided,
		ReversalOf:      m.ReversalOf,
	}
}

// JournalModelFromDomain converts a domain journal entry to its persistence model.
func JournalModelFromDomain(e *ledger.JournalEntry) *JournalEntryModel {
	lines := make([]JournalLineItemModel, 0, len(e.Lines))
	for _, line := range e.Lines {
		lines = append(lines, JournalLineItemModel{
			ID:             line.ID,
			JournalEntryID: e.ID,
			CategoryID:     line.CategoryID,
			Debit:          line.Debit,
			Credit:         line.Credit,
			Memo:           line.Memo,
		})
	}
	return &JournalEntryModel{
		ID:              e.ID,
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID,
		TransactionDate: e.TransactionDate,
		CreatedBy:       e.CreatedBy,
		PostedAt:        e.PostedAt,
		Voided:          e.Voided,
		ReversalOf:      e.ReversalOf,
		Lines:           lines,
	}
}

// CategoryDailyBalanceModel accumulates the signed balance delta posted to a
// category on a given date. The closing balance as of a date is the sum of
// all rows up to and including it.
type CategoryDailyBalanceModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_category_balance_date,priority:1"`
	BalanceDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_category_balance_date,priority:2"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryDailyBalanceModel) TableName() string {
	return "category_daily_balances"
}
