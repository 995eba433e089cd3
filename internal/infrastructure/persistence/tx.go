package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/simpleaccounts/backend/internal/domain/ledger"
)

type txContextKey struct{}

// GormTransactionManager runs a function inside a database transaction and
// threads the transactional handle through the context, so repositories can
// join the same transaction without changing their signatures.
type GormTransactionManager struct {
	db *gorm.DB
}

var _ ledger.TransactionManager = (*GormTransactionManager)(nil)

// NewGormTransactionManager creates a transaction manager over the given connection
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// InTransaction executes fn within a transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (m *GormTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the already-open transaction.
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}

// dbFrom returns the transactional handle carried by ctx, or fallback when
// the caller is not inside a transaction.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}
