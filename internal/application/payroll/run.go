package payroll

import (
	"context"
	"regexp"
	"time"

	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunStatus is the persisted state of a payroll run. RUNNING never reaches
// storage: it is represented by the live lease on the period.
type RunStatus string

const (
	RunStatusComplete RunStatus = "COMPLETE"
	RunStatusFailed   RunStatus = "FAILED"
)

// periodPattern matches pay period strings like "2024-12"
var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidPeriod reports whether the pay period string is well formed
func ValidPeriod(period string) bool {
	return periodPattern.MatchString(period)
}

// Run is the durable record of a finished payroll run
type Run struct {
	ID          uuid.UUID
	Period      string
	Status      RunStatus
	JournalID   uuid.UUID
	GrossTotal  decimal.Decimal
	RunBy       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// RunRepository persists finished payroll runs
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	FindByPeriod(ctx context.Context, period string) (*Run, error)
}

// SalaryLine is one employee's pay for a period
type SalaryLine struct {
	EmployeeID uuid.UUID
	Employee   string
	Gross      decimal.Decimal
}

// SalarySource supplies the salary lines to pay for a period. The salary
// computation itself (allowances, deductions, tax) lives behind this
// interface in the excluded service layer.
type SalarySource interface {
	SalariesForPeriod(ctx context.Context, period string) ([]SalaryLine, error)
}

// newRun creates the durable record for a completed run
func newRun(period string, journalID uuid.UUID, grossTotal decimal.Decimal, runBy string, startedAt time.Time) *Run {
	return &Run{
		ID:          uuid.New(),
		Period:      period,
		Status:      RunStatusComplete,
		JournalID:   journalID,
		GrossTotal:  grossTotal,
		RunBy:       runBy,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
	}
}

// ErrInvalidPeriod rejects malformed pay period strings
var ErrInvalidPeriod = shared.NewDomainError("INVALID_PERIOD", "Pay period must look like 2024-12")
