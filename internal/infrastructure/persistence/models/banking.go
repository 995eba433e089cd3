package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simpleaccounts/backend/internal/domain/banking"
)

// BankAccountModel is the persistence model for bank accounts.
type BankAccountModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Number     string    `gorm:"type:varchar(50)"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain bank account.
func (m *BankAccountModel) ToDomain() *banking.BankAccount {
	return &banking.BankAccount{
		ID:         m.ID,
		Name:       m.Name,
		Number:     m.Number,
		CategoryID: m.CategoryID,
		CreatedAt:  m.CreatedAt,
	}
}

// BankAccountModelFromDomain converts a domain bank account to its persistence model.
func BankAccountModelFromDomain(a *banking.BankAccount) *BankAccountModel {
	return &BankAccountModel{
		ID:         a.ID,
		Name:       a.Name,
		Number:     a.Number,
		CategoryID: a.CategoryID,
		CreatedAt:  a.CreatedAt,
	}
}

// BankTransactionModel is the persistence model for imported bank statement lines.
type BankTransactionModel struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	BankAccountID uuid.UUID                 `gorm:"type:uuid;not null;index:idx_bank_txn_account_date,priority:1"`
	Date          time.Time                 `gorm:"not null;index:idx_bank_txn_account_date,priority:2"`
	Amount        decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Side          banking.EntrySide         `gorm:"type:varchar(10);not null"`
	Description   string                    `gorm:"type:varchar(500)"`
	Status        banking.ExplanationStatus `gorm:"type:varchar(30);not null;index"`
	CreatedBy     string                    `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain bank transaction.
func (m *BankTransactionModel) ToDomain() *banking.BankTransaction {
	return &banking.BankTransaction{
		ID:            m.ID,
		BankAccountID: m.BankAccountID,
		Date:          m.Date,
		Amount:        m.Amount,
		Side:          m.Side,
		Description:   m.Description,
		Status:        m.Status,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// BankTransactionModelFromDomain converts a domain bank transaction to its persistence model.
func BankTransactionModelFromDomain(t *banking.BankTransaction) *BankTransactionModel {
	return &BankTransactionModel{
		ID:            t.ID,
		BankAccountID: t.BankAccountID,
		Date:          t.Date,
		Amount:        t.Amount,
		Side:          t.Side,
		Description:   t.Description,
		Status:        t.Status,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
	}
}

// ReconciliationRecordModel is the persistence model for completed
// reconciliation attempts. Only terminal outcomes are stored; an attempt
// that is still holding the lock has no row.
type ReconciliationRecordModel struct {
	ID              uuid.UUID                    `gorm:"type:uuid;primaryKey"`
	BankAccountID   uuid.UUID                    `gorm:"type:uuid;not null;index:idx_recon_account_end,priority:1"`
	StartDate       time.Time                    `gorm:"not null"`
	EndDate         time.Time                    `gorm:"not null;index:idx_recon_account_end,priority:2"`
	DeclaredClosing decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	LedgerClosing   decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Status          banking.ReconciliationStatus `gorm:"type:varchar(20);not null;index"`
	CreatedBy       string                       `gorm:"type:varchar(100);not null"`
	CreatedAt       time.Time                    `gorm:"not null"`
	Deleted         bool                         `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReconciliationRecordModel) TableName() string {
	return "reconciliation_records"
}

// ToDomain converts the persistence model to a domain reconciliation record.
func (m *ReconciliationRecordModel) ToDomain() *banking.ReconciliationRecord {
	return &banking.ReconciliationRecord{
		ID:              m.ID,
		BankAccountID:   m.BankAccountID,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		DeclaredClosing: m.DeclaredClosing,
		LedgerClosing:   m.LedgerClosing,
		Status:          m.Status,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		Deleted:         m.Deleted,
	}
}

// ReconciliationModelFromDomain converts a domain record to its persistence model.
func ReconciliationModelFromDomain(r *banking.ReconciliationRecord) *ReconciliationRecordModel {
	return &ReconciliationRecordModel{
		ID:              r.ID,
		BankAccountID:   r.BankAccountID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		DeclaredClosing: r.DeclaredClosing,
		LedgerClosing:   r.LedgerClosing,
		Status:          r.Status,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		Deleted:         r.Deleted,
	}
}
