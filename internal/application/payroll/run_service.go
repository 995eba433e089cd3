package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/simpleaccounts/backend/internal/domain/ledger"
	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/simpleaccounts/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RunService executes a payroll run end to end: claim the period, aggregate
// salaries, post the salary journal, record the run, free the period. The
// period lease is released on every exit path of Run, so a failed run
// degrades to a retry, never to a permanently blocked period.
type RunService struct {
	coordinator *RunCoordinator
	salaries    SalarySource
	poster      *ledger.Poster
	categories  ledger.CategoryRepository
	runs        RunRepository
	logger      *zap.Logger
}

// NewRunService creates a payroll run service
func NewRunService(
	coordinator *RunCoordinator,
	salaries SalarySource,
	poster *ledger.Poster,
	categories ledger.CategoryRepository,
	runs RunRepository,
	logger *zap.Logger,
) *RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunService{
		coordinator: coordinator,
		salaries:    salaries,
		poster:      poster,
		categories:  categories,
		runs:        runs,
		logger:      logger,
	}
}

// RunResult reports a completed payroll run
type RunResult struct {
	Run        *Run
	LineCount  int
	GrossTotal decimal.Decimal
}

// Run executes the payroll run for a period on behalf of userID. When
// another run holds the period it returns (nil, "", nil) alongside the
// blocked message; the caller retries later.
func (s *RunService) Run(ctx context.Context, period, userID string) (result *RunResult, blocked string, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payroll", "run")
	defer span.End()
	telemetry.SetAttributes(span, "period", period, "user_id", userID)

	if !ValidPeriod(period) {
		return nil, "", ErrInvalidPeriod
	}

	started, err := s.coordinator.TryStart(ctx, period, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", err
	}
	if !started {
		msg, msgErr := s.coordinator.BlockedMessage(ctx, period)
		if msgErr != nil {
			return nil, "", msgErr
		}
		return nil, msg, nil
	}
	startedAt := time.Now()

	defer func() {
		// Guaranteed cleanup: Complete releases on success; after a failure
		// the lease is released here so the period frees immediately instead
		// of waiting out the TTL.
		if err != nil {
			if releaseErr := s.coordinator.Complete(ctx, period, userID); releaseErr != nil {
				s.logger.Warn("failed to free period after payroll error",
					zap.String("period", period),
					zap.Error(releaseErr),
				)
			}
		}
	}()

	lines, err := s.salaries.SalariesForPeriod(ctx, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", fmt.Errorf("failed to aggregate salaries for %s: %w", period, err)
	}
	if len(lines) == 0 {
		err = shared.NewDomainError("NO_SALARIES", "No salaries found for period "+period)
		return nil, "", err
	}

	entry, grossTotal, err := s.salaryJournal(ctx, period, userID, lines)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", err
	}

	journalID, err := s.poster.Post(ctx, entry)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", fmt.Errorf("failed to post payroll journal for %s: %w", period, err)
	}

	run := newRun(period, journalID, grossTotal, userID, startedAt)
	if err = s.runs.Save(ctx, run); err != nil {
		telemetry.RecordError(span, err)
		return nil, "", fmt.Errorf("failed to record payroll run for %s: %w", period, err)
	}

	if err = s.coordinator.Complete(ctx, period, userID); err != nil {
		return nil, "", err
	}

	s.logger.Info("payroll run finished",
		zap.String("period", period),
		zap.Int("employees", len(lines)),
		zap.String("gross_total", grossTotal.StringFixed(ledger.MinorUnitPlaces)),
		zap.String("user", userID),
	)
	return &RunResult{Run: run, LineCount: len(lines), GrossTotal: grossTotal}, "", nil
}

// salaryJournal builds the balanced journal for a period's salaries: one
// debit to salary expense per employee, one aggregate credit to salaries
// payable.
func (s *RunService) salaryJournal(
	ctx context.Context,
	period, userID string,
	lines []SalaryLine,
) (*ledger.JournalEntry, decimal.Decimal, error) {
	expense, err := s.categories.FindByCode(ctx, ledger.CategoryCodeSalaryExpense)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to resolve salary expense category: %w", err)
	}
	payable, err := s.categories.FindByCode(ctx, ledger.CategoryCodeSalariesPayable)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to resolve salaries payable category: %w", err)
	}
	if expense == nil || payable == nil {
		return nil, decimal.Zero, shared.NewDomainError("MISSING_CATEGORY",
			"Payroll categories are not seeded in the chart of accounts")
	}

	grossTotal := decimal.Zero
	items := make([]ledger.JournalLineItem, 0, len(lines)+1)
	for _, line := range lines {
		if !line.Gross.IsPositive() {
			return nil, decimal.Zero, shared.NewDomainError("INVALID_SALARY",
				"Salary for "+line.Employee+" must be positive")
		}
		items = append(items, ledger.NewDebitLine(expense.ID, line.Gross, "Salary "+period+" "+line.Employee))
		grossTotal = grossTotal.Add(line.Gross)
	}
	items = append(items, ledger.NewCreditLine(payable.ID, grossTotal, "Salaries payable "+period))

	entry, err := ledger.NewJournalEntry(
		ledger.ReferenceTypePayroll,
		period,
		time.Now(),
		userID,
		items,
	)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return entry, grossTotal, nil
}
