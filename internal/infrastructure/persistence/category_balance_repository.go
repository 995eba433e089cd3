package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simpleaccounts/backend/internal/domain/ledger"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence/models"
)

// GormCategoryBalanceRepository maintains the per-category daily balance
// projection using GORM
type GormCategoryBalanceRepository struct {
	db *gorm.DB
}

var _ ledger.CategoryBalanceRepository = (*GormCategoryBalanceRepository)(nil)

// NewGormCategoryBalanceRepository creates a new GormCategoryBalanceRepository
func NewGormCategoryBalanceRepository(db *gorm.DB) *GormCategoryBalanceRepository {
	return &GormCategoryBalanceRepository{db: db}
}

// ApplyDelta adds the signed delta to the category's balance row for the
// date. The upsert increments server-side, so concurrent deltas to the same
// category serialize on the row without losing updates.
func (r *GormCategoryBalanceRepository) ApplyDelta(ctx context.Context, categoryID uuid.UUID, asOf time.Time, delta decimal.Decimal) error {
	row := &models.CategoryDailyBalanceModel{
		ID:          uuid.New(),
		CategoryID:  categoryID,
		BalanceDate: truncateToDate(asOf),
		Amount:      delta,
		UpdatedAt:   time.Now(),
	}
	return dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "category_id"}, {Name: "balance_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount":     gorm.Expr("category_daily_balances.amount + ?", delta),
				"updated_at": time.Now(),
			}),
		}).
		Create(row).Error
}

// ClosingBalanceAsOf sums all daily deltas up to and including the date.
func (r *GormCategoryBalanceRepository) ClosingBalanceAsOf(ctx context.Context, categoryID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.CategoryDailyBalanceModel{}).
		Select("SUM(amount)").
		Where("category_id = ? AND balance_date <= ?", categoryID, truncateToDate(asOf)).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
