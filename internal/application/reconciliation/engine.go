package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/simpleaccounts/backend/internal/domain/banking"
	"github.com/simpleaccounts/backend/internal/domain/coordination"
	"github.com/simpleaccounts/backend/internal/domain/ledger"
	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/simpleaccounts/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileOutcomeCode discriminates the result of a reconciliation attempt.
// ALREADY_RECONCILING is a concurrency conflict, not a data error; the others
// on the failure side are business conditions the caller must resolve.
type ReconcileOutcomeCode string

const (
	OutcomeReconciled               ReconcileOutcomeCode = "RECONCILED"
	OutcomeAlreadyReconciling       ReconcileOutcomeCode = "ALREADY_RECONCILING"
	OutcomeNothingToReconcile       ReconcileOutcomeCode = "NOTHING_TO_RECONCILE"
	OutcomeAlreadyReconciledForDate ReconcileOutcomeCode = "ALREADY_RECONCILED_FOR_DATE"
	OutcomePendingUnexplained       ReconcileOutcomeCode = "PENDING_UNEXPLAINED"
	OutcomeBalanceMismatch          ReconcileOutcomeCode = "BALANCE_MISMATCH"
)

// ReconcileResult is the discriminated outcome of ReconcileNow
type ReconcileResult struct {
	Code    ReconcileOutcomeCode `json:"code"`
	Message string               `json:"message"`

	// PendingCount is set for PENDING_UNEXPLAINED
	PendingCount int64 `json:"pending_count,omitempty"`

	// ExpectedClosing/DeclaredClosing are set for BALANCE_MISMATCH
	ExpectedClosing decimal.Decimal `json:"expected_closing,omitempty"`
	DeclaredClosing decimal.Decimal `json:"declared_closing,omitempty"`

	// RecordID is set for RECONCILED
	RecordID uuid.UUID `json:"record_id,omitempty"`
}

// Succeeded reports whether the attempt committed a reconciliation
func (r *ReconcileResult) Succeeded() bool {
	return r.Code == OutcomeReconciled
}

// Engine drives the reconciliation state machine for a bank account and
// period: it matches the ledger-derived closing balance against
// the bank-declared one over a date window and, on agreement, marks the
// window's transactions reconciled. A critical-section lock on the
// (account, period-end) key keeps concurrent attempts from racing on the
// same books.
type Engine struct {
	locks        *coordination.CriticalSectionLock
	accounts     banking.BankAccountRepository
	transactions banking.BankTransactionRepository
	records      banking.ReconciliationRepository
	balances     ledger.CategoryBalanceRepository
	tx           ledger.TransactionManager
	lockTTL      time.Duration
	logger       *zap.Logger
}

// Option is a functional option for configuring Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLockTTL overrides the lease TTL for reconciliation runs
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// DefaultReconcileLockTTL bounds how long a crashed reconciliation can keep
// an (account, period) pair wedged before reclamation.
const DefaultReconcileLockTTL = 10 * time.Minute

// NewEngine creates a reconciliation engine
func NewEngine(
	locks *coordination.CriticalSectionLock,
	accounts banking.BankAccountRepository,
	transactions banking.BankTransactionRepository,
	records banking.ReconciliationRepository,
	balances ledger.CategoryBalanceRepository,
	tx ledger.TransactionManager,
	opts ...Option,
) *Engine {
	e := &Engine{
		locks:        locks,
		accounts:     accounts,
		transactions: transactions,
		records:      records,
		balances:     balances,
		tx:           tx,
		lockTTL:      DefaultReconcileLockTTL,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// reconcileLockKey scopes the lease to one account and period end
func reconcileLockKey(accountID uuid.UUID, periodEnd time.Time) string {
	return fmt.Sprintf("reconcile:%s:%s", accountID, periodEnd.Format("2006-01-02"))
}

// endOfDay extends a period-end date to the last instant of that day, so
// transactions dated any time on the closing day fall inside the window.
func endOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, 0, d.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ReconcileNow runs one reconciliation attempt for the account through
// periodEnd against the caller-declared closing balance.
//
// The lease is released exactly once on every exit path; a fault between
// acquisition and release degrades to "wait for TTL", never to a permanently
// wedged account/period.
func (e *Engine) ReconcileNow(
	ctx context.Context,
	accountID uuid.UUID,
	periodEnd time.Time,
	declaredClosing decimal.Decimal,
	userID string,
) (*ReconcileResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile_now")
	defer span.End()
	telemetry.SetAttributes(span,
		"bank_account_id", accountID.String(),
		"period_end", periodEnd.Format("2006-01-02"),
		"user_id", userID,
	)

	key := reconcileLockKey(accountID, periodEnd)
	acquired, err := e.locks.TryAcquire(ctx, key, userID, e.lockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !acquired {
		owner, _, _ := e.locks.OwnerOf(ctx, key)
		return &ReconcileResult{
			Code:    OutcomeAlreadyReconciling,
			Message: fmt.Sprintf("Reconciliation for this account and date is in progress by %s", owner),
		}, nil
	}
	defer func() {
		if releaseErr := e.locks.Release(ctx, key, userID); releaseErr != nil {
			// Lease expired mid-run and may have been reclaimed; the TTL
			// already did the cleanup.
			e.logger.Warn("reconciliation lease release failed",
				zap.String("key", key),
				zap.Error(releaseErr),
			)
		}
	}()

	result, err := e.reconcileLocked(ctx, accountID, periodEnd, declaredClosing, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "outcome", string(result.Code))
	return result, nil
}

// reconcileLocked is the body of the attempt; the caller holds the lease.
func (e *Engine) reconcileLocked(
	ctx context.Context,
	accountID uuid.UUID,
	periodEnd time.Time,
	declaredClosing decimal.Decimal,
	userID string,
) (*ReconcileResult, error) {
	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, shared.ErrNotFound
	}

	windowEnd := endOfDay(periodEnd)

	last, err := e.records.LastSuccessful(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var windowStart time.Time
	if last != nil {
		if sameDay(last.EndDate, periodEnd) || last.EndDate.After(windowEnd) {
			return &ReconcileResult{
				Code:    OutcomeAlreadyReconciledForDate,
				Message: "The transactions in this bank account are already reconciled for the given date",
			}, nil
		}
		windowStart = last.EndDate
	} else {
		earliest, err := e.transactions.EarliestTransactionDate(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if earliest == nil || earliest.After(windowEnd) {
			return &ReconcileResult{
				Code:    OutcomeNothingToReconcile,
				Message: "The reconcile date should be on or after the account's first transaction date",
			}, nil
		}
		windowStart = *earliest
	}

	pending, err := e.transactions.CountPendingInWindow(ctx, accountID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return &ReconcileResult{
			Code:         OutcomePendingUnexplained,
			PendingCount: pending,
			Message: fmt.Sprintf(
				"Failed reconciling. Please explain the remaining %d transactions before reconciling", pending),
		}, nil
	}

	ledgerClosing, err := e.balances.ClosingBalanceAsOf(ctx, account.CategoryID, windowEnd)
	if err != nil {
		return nil, err
	}

	// Magnitude comparison: the ledger carries the bank category with the
	// books' sign convention while statements declare a positive closing
	// balance, so only |ledger| vs |declared| is meaningful here.
	expected := ledgerClosing.Abs().Round(ledger.MinorUnitPlaces)
	declared := declaredClosing.Abs().Round(ledger.MinorUnitPlaces)
	if !expected.Equal(declared) {
		return &ReconcileResult{
			Code:            OutcomeBalanceMismatch,
			ExpectedClosing: expected,
			DeclaredClosing: declaredClosing,
			Message: fmt.Sprintf(
				"Failed reconciling. Closing balance in system %s does not match the given closing balance %s",
				expected.StringFixed(ledger.MinorUnitPlaces),
				declaredClosing.StringFixed(ledger.MinorUnitPlaces)),
		}, nil
	}

	record := banking.NewReconciliationRecord(accountID, windowStart, windowEnd, declaredClosing, ledgerClosing, userID)
	err = e.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := e.transactions.UpdateStatusInWindow(txCtx, accountID, windowStart, windowEnd,
			banking.ExplanationStatusExplained, banking.ExplanationStatusReconciled); err != nil {
			return fmt.Errorf("failed to mark window transactions reconciled: %w", err)
		}
		if err := e.records.Save(txCtx, record); err != nil {
			return fmt.Errorf("failed to persist reconciliation record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("account reconciled",
		zap.String("bank_account_id", accountID.String()),
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
		zap.String("closing_balance", ledgerClosing.StringFixed(ledger.MinorUnitPlaces)),
		zap.String("user", userID),
	)
	return &ReconcileResult{
		Code:     OutcomeReconciled,
		RecordID: record.ID,
		Message:  "Reconciled successfully",
	}, nil
}

// DeleteReconciliation soft-deletes a reconciliation record and reverts the
// transaction-status side effects of the original run: every transaction the
// run marked RECONCILED goes back to EXPLAINED, re-opening the window.
func (e *Engine) DeleteReconciliation(ctx context.Context, recordID uuid.UUID, userID string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "delete")
	defer span.End()

	record, err := e.records.FindByID(ctx, recordID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if record == nil {
		return shared.ErrNotFound
	}
	if record.Deleted {
		return shared.ErrInvalidState
	}

	err = e.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := e.transactions.UpdateStatusInWindow(txCtx, record.BankAccountID,
			record.StartDate, record.EndDate,
			banking.ExplanationStatusReconciled, banking.ExplanationStatusExplained); err != nil {
			return fmt.Errorf("failed to revert window transaction statuses: %w", err)
		}
		if err := e.records.MarkDeleted(txCtx, record.ID); err != nil {
			return fmt.Errorf("failed to delete reconciliation record: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	e.logger.Info("reconciliation deleted",
		zap.String("record_id", recordID.String()),
		zap.String("bank_account_id", record.BankAccountID.String()),
		zap.String("user", userID),
	)
	return nil
}
