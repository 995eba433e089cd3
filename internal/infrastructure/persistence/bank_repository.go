package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simpleaccounts/backend/internal/domain/banking"
	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence/models"
)

// GormBankAccountRepository implements BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

var _ banking.BankAccountRepository = (*GormBankAccountRepository)(nil)

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by its ID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*banking.BankAccount, error) {
	var model models.BankAccountModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the bank account by primary key
func (r *GormBankAccountRepository) Save(ctx context.Context, account *banking.BankAccount) error {
	model := models.BankAccountModelFromDomain(account)
	return dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// GormBankTransactionRepository implements BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

var _ banking.BankTransactionRepository = (*GormBankTransactionRepository)(nil)

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// Save upserts the bank transaction by primary key
func (r *GormBankTransactionRepository) Save(ctx context.Context, tx *banking.BankTransaction) error {
	model := models.BankTransactionModelFromDomain(tx)
	return dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// EarliestTransactionDate returns the date of the account's first transaction
func (r *GormBankTransactionRepository) EarliestTransactionDate(ctx context.Context, accountID uuid.UUID) (*time.Time, error) {
	var model models.BankTransactionModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("bank_account_id = ?", accountID).
		Order("date ASC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.Date, nil
}

// CountPendingInWindow counts window transactions still awaiting explanation
func (r *GormBankTransactionRepository) CountPendingInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.BankTransactionModel{}).
		Where("bank_account_id = ? AND date >= ? AND date <= ?", accountID, start, end).
		Where("status IN ?", []banking.ExplanationStatus{
			banking.ExplanationStatusUnexplained,
			banking.ExplanationStatusPartiallyExplained,
		}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatusInWindow moves every window transaction from one status to another
func (r *GormBankTransactionRepository) UpdateStatusInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time, from, to banking.ExplanationStatus) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.BankTransactionModel{}).
		Where("bank_account_id = ? AND date >= ? AND date <= ? AND status = ?", accountID, start, end, from).
		Update("status", to).Error
}
