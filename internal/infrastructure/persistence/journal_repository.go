package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simpleaccounts/backend/internal/domain/ledger"
	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence/models"
)

// GormJournalRepository implements JournalRepository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

var _ ledger.JournalRepository = (*GormJournalRepository)(nil)

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// Save persists the journal entry with all of its line items
func (r *GormJournalRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	model := models.JournalModelFromDomain(entry)
	return dbFrom(ctx, r.db).WithContext(ctx).Create(model).Error
}

// FindByID loads a journal entry including its line items
func (r *GormJournalRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// MarkVoided flags the journal as voided. The guarded update makes voiding
// twice fail, so the same journal cannot be reversed two times.
func (r *GormJournalRepository) MarkVoided(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("id = ? AND voided = ?", id, false).
		Update("voided", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrJournalVoided
	}
	return nil
}
