package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/simpleaccounts/backend/internal/application/payroll"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence/models"
)

// GormPayrollRunRepository implements RunRepository using GORM
type GormPayrollRunRepository struct {
	db *gorm.DB
}

var _ payroll.RunRepository = (*GormPayrollRunRepository)(nil)

// NewGormPayrollRunRepository creates a new GormPayrollRunRepository
func NewGormPayrollRunRepository(db *gorm.DB) *GormPayrollRunRepository {
	return &GormPayrollRunRepository{db: db}
}

// Save persists the finished payroll run. The unique index on period backs
// up the lease: even if two runs for one period ever both completed, the
// second insert fails.
func (r *GormPayrollRunRepository) Save(ctx context.Context, run *payroll.Run) error {
	model := models.PayrollRunModelFromDomain(run)
	return dbFrom(ctx, r.db).WithContext(ctx).Create(model).Error
}

// FindByPeriod returns the run for a period, or nil when none has completed
func (r *GormPayrollRunRepository) FindByPeriod(ctx context.Context, period string) (*payroll.Run, error) {
	var model models.PayrollRunModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("period = ?", period).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}
