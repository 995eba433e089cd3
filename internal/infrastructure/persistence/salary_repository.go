package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/simpleaccounts/backend/internal/application/payroll"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence/models"
)

// GormSalarySource reads the gross salaries due for a period
type GormSalarySource struct {
	db *gorm.DB
}

var _ payroll.SalarySource = (*GormSalarySource)(nil)

// NewGormSalarySource creates a new GormSalarySource
func NewGormSalarySource(db *gorm.DB) *GormSalarySource {
	return &GormSalarySource{db: db}
}

// SalariesForPeriod returns one line per employee with a salary recorded
// for the period
func (s *GormSalarySource) SalariesForPeriod(ctx context.Context, period string) ([]payroll.SalaryLine, error) {
	var rows []models.EmployeeSalaryModel
	if err := dbFrom(ctx, s.db).WithContext(ctx).
		Where("period = ?", period).
		Order("employee_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]payroll.SalaryLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, payroll.SalaryLine{
			EmployeeID: row.EmployeeID,
			Employee:   row.EmployeeName,
			Gross:      row.Gross,
		})
	}
	return lines, nil
}
