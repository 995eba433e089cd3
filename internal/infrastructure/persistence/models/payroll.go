package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simpleaccounts/backend/internal/application/payroll"
)

// EmployeeSalaryModel records the gross salary an employee is owed for a
// payroll period.
type EmployeeSalaryModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_salary_employee_period,priority:1"`
	Period       string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_salary_employee_period,priority:2;index"`
	EmployeeName string          `gorm:"type:varchar(200);not null"`
	Gross        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EmployeeSalaryModel) TableName() string {
	return "employee_salaries"
}

// PayrollRunModel is the persistence model for finished payroll runs.
// A run in flight exists only as a lease; rows appear on completion.
type PayrollRunModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Period      string            `gorm:"type:varchar(7);not null;uniqueIndex"`
	Status      payroll.RunStatus `gorm:"type:varchar(20);not null"`
	JournalID   uuid.UUID         `gorm:"type:uuid;not null"`
	GrossTotal  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	RunBy       string            `gorm:"type:varchar(100);not null"`
	StartedAt   time.Time         `gorm:"not null"`
	CompletedAt time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PayrollRunModel) TableName() string {
	return "payroll_runs"
}

// ToDomain converts the persistence model to a domain payroll run.
func (m *PayrollRunModel) ToDomain() *payroll.Run {
	return &payroll.Run{
		ID:          m.ID,
		Period:      m.Period,
		Status:      m.Status,
		JournalID:   m.JournalID,
		GrossTotal:  m.GrossTotal,
		RunBy:       m.RunBy,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
}

// PayrollRunModelFromDomain converts a domain payroll run to its persistence model.
func PayrollRunModelFromDomain(r *payroll.Run) *PayrollRunModel {
	return &PayrollRunModel{
		ID:          r.ID,
		Period:      r.Period,
		Status:      r.Status,
		JournalID:   r.JournalID,
		GrossTotal:  r.GrossTotal,
		RunBy:       r.RunBy,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}
