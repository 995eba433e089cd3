package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpleaccounts/backend/internal/domain/banking"
	"github.com/simpleaccounts/backend/internal/domain/coordination"
	"github.com/simpleaccounts/backend/internal/domain/shared"
	infracoord "github.com/simpleaccounts/backend/internal/infrastructure/coordination"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// memBank fakes all banking repositories plus the balance projection.
type memBank struct {
	mu         sync.Mutex
	accounts   map[uuid.UUID]*banking.BankAccount
	txns       map[uuid.UUID]*banking.BankTransaction
	records    map[uuid.UUID]*banking.ReconciliationRecord
	balances   map[uuid.UUID]decimal.Decimal
	balanceErr error
}

func newMemBank() *memBank {
	return &memBank{
		accounts: make(map[uuid.UUID]*banking.BankAccount),
		txns:     make(map[uuid.UUID]*banking.BankTransaction),
		records:  make(map[uuid.UUID]*banking.ReconciliationRecord),
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (m *memBank) FindByID(_ context.Context, id uuid.UUID) (*banking.BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return account, nil
}

func (m *memBank) Save(_ context.Context, account *banking.BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

type memTxnRepo struct{ m *memBank }

func (r memTxnRepo) Save(_ context.Context, tx *banking.BankTransaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *tx
	r.m.txns[tx.ID] = &copied
	return nil
}

func (r memTxnRepo) EarliestTransactionDate(_ context.Context, accountID uuid.UUID) (*time.Time, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var earliest *time.Time
	for _, tx := range r.m.txns {
		if tx.BankAccountID != accountID {
			continue
		}
		if earliest == nil || tx.Date.Before(*earliest) {
			d := tx.Date
			earliest = &d
		}
	}
	return earliest, nil
}

func (r memTxnRepo) CountPendingInWindow(_ context.Context, accountID uuid.UUID, start, end time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for _, tx := range r.m.txns {
		if tx.BankAccountID == accountID && !tx.Date.Before(start) && !tx.Date.After(end) && !tx.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (r memTxnRepo) UpdateStatusInWindow(_ context.Context, accountID uuid.UUID, start, end time.Time, from, to banking.ExplanationStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, tx := range r.m.txns {
		if tx.BankAccountID == accountID && !tx.Date.Before(start) && !tx.Date.After(end) && tx.Status == from {
			tx.Status = to
		}
	}
	return nil
}

type memRecordRepo struct{ m *memBank }

func (r memRecordRepo) Save(_ context.Context, record *banking.ReconciliationRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *record
	r.m.records[record.ID] = &copied
	return nil
}

func (r memRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*banking.ReconciliationRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	record, ok := r.m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (r memRecordRepo) LastSuccessful(_ context.Context, accountID uuid.UUID) (*banking.ReconciliationRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var last *banking.ReconciliationRecord
	for _, record := range r.m.records {
		if record.BankAccountID != accountID || record.Deleted || record.Status != banking.ReconciliationStatusReconciled {
			continue
		}
		if last == nil || record.EndDate.After(last.EndDate) {
			last = record
		}
	}
	if last == nil {
		return nil, nil
	}
	copied := *last
	return &copied, nil
}

func (r memRecordRepo) ExistsForDate(_ context.Context, accountID uuid.UUID, endDate time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, record := range r.m.records {
		if record.BankAccountID == accountID && !record.Deleted && record.EndDate.Equal(endDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r memRecordRepo) MarkDeleted(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	record, ok := r.m.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	record.Deleted = true
	return nil
}

type memBalances struct{ m *memBank }

func (b memBalances) ApplyDelta(_ context.Context, categoryID uuid.UUID, _ time.Time, delta decimal.Decimal) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.m.balances[categoryID] = b.m.balances[categoryID].Add(delta)
	return nil
}

func (b memBalances) ClosingBalanceAsOf(_ context.Context, categoryID uuid.UUID, _ time.Time) (decimal.Decimal, error) {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	if b.m.balanceErr != nil {
		return decimal.Zero, b.m.balanceErr
	}
	return b.m.balances[categoryID], nil
}

type passthroughTx struct{}

func (passthroughTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	bank      *memBank
	lock      *coordination.CriticalSectionLock
	engine    *Engine
	accountID uuid.UUID
	category  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bank := newMemBank()
	lock := coordination.NewCriticalSectionLock(infracoord.NewInMemoryLeaseStore())
	engine := NewEngine(lock, bank, memTxnRepo{bank}, memRecordRepo{bank}, memBalances{bank}, passthroughTx{})

	categoryID := uuid.New()
	account, err := banking.NewBankAccount("Business Current", "10023344", categoryID)
	require.NoError(t, err)
	bank.accounts[account.ID] = account

	return &fixture{bank: bank, lock: lock, engine: engine, accountID: account.ID, category: categoryID}
}

func (f *fixture) addTransaction(date time.Time, amount string, status banking.ExplanationStatus) {
	tx, _ := banking.NewBankTransaction(f.accountID, date, dec(amount), banking.EntrySideCredit, "stmt line", "importer")
	tx.Status = status
	f.bank.txns[tx.ID] = tx
}

var periodEnd = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func TestEngine_ReconcileNow(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles a clean window", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -10), "15230.50", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("15230.50")

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("15230.50"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeReconciled, result.Code)
		assert.True(t, result.Succeeded())
		assert.NotEqual(t, uuid.Nil, result.RecordID)

		// Window transactions moved to RECONCILED.
		for _, tx := range f.bank.txns {
			assert.Equal(t, banking.ExplanationStatusReconciled, tx.Status)
		}

		record := f.bank.records[result.RecordID]
		require.NotNil(t, record)
		assert.Equal(t, banking.ReconciliationStatusReconciled, record.Status)
		assert.Equal(t, "alice", record.CreatedBy)
		assert.False(t, record.Deleted)

		// Lease is gone once the attempt finishes.
		_, held, err := f.lock.OwnerOf(ctx, reconcileLockKey(f.accountID, periodEnd))
		require.NoError(t, err)
		assert.False(t, held)
	})

	t.Run("declared balance mismatch reports both amounts", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -5), "15230.50", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("15230.50")

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("15000.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeBalanceMismatch, result.Code)
		assert.False(t, result.Succeeded())
		assert.True(t, result.ExpectedClosing.Equal(dec("15230.50")))
		assert.True(t, result.DeclaredClosing.Equal(dec("15000.00")))
		assert.Contains(t, result.Message, "15230.50")
		assert.Contains(t, result.Message, "15000.00")

		// Nothing committed.
		assert.Empty(t, f.bank.records)
		for _, tx := range f.bank.txns {
			assert.Equal(t, banking.ExplanationStatusExplained, tx.Status)
		}
	})

	t.Run("ledger sign convention does not break matching", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -5), "15230.50", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("-15230.50")

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("15230.50"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeReconciled, result.Code)
	})

	t.Run("unexplained transactions block the run with a count", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -8), "100.00", banking.ExplanationStatusExplained)
		f.addTransaction(periodEnd.AddDate(0, 0, -6), "40.00", banking.ExplanationStatusUnexplained)
		f.addTransaction(periodEnd.AddDate(0, 0, -4), "60.00", banking.ExplanationStatusUnexplained)
		f.addTransaction(periodEnd.AddDate(0, 0, -2), "25.00", banking.ExplanationStatusPartiallyExplained)

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("200.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomePendingUnexplained, result.Code)
		assert.Equal(t, int64(3), result.PendingCount)
		assert.Contains(t, result.Message, "3 transactions")
	})

	t.Run("no transactions means nothing to reconcile", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("0.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNothingToReconcile, result.Code)
	})

	t.Run("period end before the first transaction means nothing to reconcile", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 1, 0), "100.00", banking.ExplanationStatusExplained)

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("100.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNothingToReconcile, result.Code)
	})

	t.Run("idempotent for an already reconciled date", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -10), "500.00", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("500.00")

		first, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("500.00"), "alice")
		require.NoError(t, err)
		require.Equal(t, OutcomeReconciled, first.Code)

		second, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("500.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyReconciledForDate, second.Code)
		assert.Len(t, f.bank.records, 1)
	})

	t.Run("next period window starts at the previous period end", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -10), "500.00", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("500.00")

		first, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("500.00"), "alice")
		require.NoError(t, err)
		require.Equal(t, OutcomeReconciled, first.Code)

		nextEnd := periodEnd.AddDate(0, 1, 0)
		f.addTransaction(periodEnd.AddDate(0, 0, 15), "250.00", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("750.00")

		second, err := f.engine.ReconcileNow(ctx, f.accountID, nextEnd, dec("750.00"), "alice")
		require.NoError(t, err)
		require.Equal(t, OutcomeReconciled, second.Code)

		record := f.bank.records[second.RecordID]
		require.NotNil(t, record)
		assert.True(t, sameDay(record.StartDate, f.bank.records[first.RecordID].EndDate))
	})

	t.Run("held lock yields ALREADY_RECONCILING with the owner", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -5), "100.00", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("100.00")

		key := reconcileLockKey(f.accountID, periodEnd)
		ok, err := f.lock.TryAcquire(ctx, key, "bob", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("100.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyReconciling, result.Code)
		assert.Contains(t, result.Message, "in progress by bob")

		// Bob's lease survives the rejected attempt.
		held, err := f.lock.IsHeldBy(ctx, key, "bob")
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.ReconcileNow(ctx, uuid.New(), periodEnd, dec("0.00"), "alice")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lease is released when the attempt fails", func(t *testing.T) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -5), "100.00", banking.ExplanationStatusExplained)
		f.bank.balanceErr = errors.New("projection store down")

		_, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("100.00"), "alice")
		require.Error(t, err)

		_, held, err := f.lock.OwnerOf(ctx, reconcileLockKey(f.accountID, periodEnd))
		require.NoError(t, err)
		assert.False(t, held, "lease must not leak on failure")
	})
}

func TestEngine_ConcurrentAttempts(t *testing.T) {
	f := newFixture(t)
	f.addTransaction(periodEnd.AddDate(0, 0, -5), "320.00", banking.ExplanationStatusExplained)
	f.bank.balances[f.category] = dec("320.00")

	const attempts = 5
	results := make([]*ReconcileResult, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := f.engine.ReconcileNow(context.Background(), f.accountID, periodEnd, dec("320.00"), "worker")
			assert.NoError(t, err)
			results[n] = result
		}(i)
	}
	wg.Wait()

	reconciled := 0
	for _, result := range results {
		require.NotNil(t, result)
		switch result.Code {
		case OutcomeReconciled:
			reconciled++
		case OutcomeAlreadyReconciling, OutcomeAlreadyReconciledForDate:
			// Turned away by the lease or by the committed record.
		default:
			t.Fatalf("unexpected outcome %s", result.Code)
		}
	}
	assert.Equal(t, 1, reconciled, "exactly one attempt may commit")
	assert.Len(t, f.bank.records, 1)
}

func TestEngine_DeleteReconciliation(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, uuid.UUID) {
		f := newFixture(t)
		f.addTransaction(periodEnd.AddDate(0, 0, -5), "450.00", banking.ExplanationStatusExplained)
		f.bank.balances[f.category] = dec("450.00")

		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("450.00"), "alice")
		require.NoError(t, err)
		require.Equal(t, OutcomeReconciled, result.Code)
		return f, result.RecordID
	}

	t.Run("reverts transaction statuses and soft-deletes the record", func(t *testing.T) {
		f, recordID := setup(t)

		require.NoError(t, f.engine.DeleteReconciliation(ctx, recordID, "alice"))

		for _, tx := range f.bank.txns {
			assert.Equal(t, banking.ExplanationStatusExplained, tx.Status)
		}
		assert.True(t, f.bank.records[recordID].Deleted)

		// The period can be reconciled again.
		result, err := f.engine.ReconcileNow(ctx, f.accountID, periodEnd, dec("450.00"), "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeReconciled, result.Code)
	})

	t.Run("deleting twice fails", func(t *testing.T) {
		f, recordID := setup(t)
		require.NoError(t, f.engine.DeleteReconciliation(ctx, recordID, "alice"))
		err := f.engine.DeleteReconciliation(ctx, recordID, "alice")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown record", func(t *testing.T) {
		f, _ := setup(t)
		err := f.engine.DeleteReconciliation(ctx, uuid.New(), "alice")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestEndOfDay(t *testing.T) {
	d := time.Date(2024, 6, 30, 9, 15, 0, 0, time.UTC)
	end := endOfDay(d)
	assert.Equal(t, time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC), end)
}
