package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simpleaccounts/backend/internal/domain/banking"
	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence/models"
)

// GormReconciliationRepository implements ReconciliationRepository using GORM
type GormReconciliationRepository struct {
	db *gorm.DB
}

var _ banking.ReconciliationRepository = (*GormReconciliationRepository)(nil)

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// Save persists the reconciliation record
func (r *GormReconciliationRepository) Save(ctx context.Context, record *banking.ReconciliationRecord) error {
	model := models.ReconciliationModelFromDomain(record)
	return dbFrom(ctx, r.db).WithContext(ctx).Create(model).Error
}

// FindByID finds a reconciliation record by its ID
func (r *GormReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*banking.ReconciliationRecord, error) {
	var model models.ReconciliationRecordModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LastSuccessful returns the account's most recent live reconciliation record
func (r *GormReconciliationRepository) LastSuccessful(ctx context.Context, accountID uuid.UUID) (*banking.ReconciliationRecord, error) {
	var model models.ReconciliationRecordModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("bank_account_id = ? AND status = ? AND deleted = ?",
			accountID, banking.ReconciliationStatusReconciled, false).
		Order("end_date DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsForDate reports whether a live record already covers the period end
func (r *GormReconciliationRepository) ExistsForDate(ctx context.Context, accountID uuid.UUID, endDate time.Time) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.ReconciliationRecordModel{}).
		Where("bank_account_id = ? AND end_date = ? AND status = ? AND deleted = ?",
			accountID, endDate, banking.ReconciliationStatusReconciled, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkDeleted soft-deletes a record
func (r *GormReconciliationRepository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.ReconciliationRecordModel{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
