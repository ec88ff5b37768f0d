// Package hrstore is the read-only access layer over the HR directory.
// The query engine only consumes this interface; writes to employee,
// attendance, leave, and performance records belong to the rest of the
// HR application.
package hrstore

import (
	"context"
	"time"

	"github.com/stafflane/hr-copilot/internal/domain"
)

// Directory exposes the per-entity lookups the scoped fetchers need.
// Implementations return domain.NotFoundError when a record is absent.
type Directory interface {
	// FindByID returns one employee by employee id.
	FindByID(ctx context.Context, employeeID string) (domain.Employee, error)

	// FindByManager returns the direct reports of a manager, ordered by
	// employee id.
	FindByManager(ctx context.Context, managerID string) ([]domain.Employee, error)

	// ListAll returns every employee, ordered by employee id. Only
	// admin-scoped fetches may call it.
	ListAll(ctx context.Context) ([]domain.Employee, error)

	// AttendanceByEmployeeAndRange returns attendance rows for one
	// employee within [from, to], ordered by date.
	AttendanceByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]domain.AttendanceRecord, error)

	// LeaveBalancesByEmployee returns every leave-type balance row for
	// one employee.
	LeaveBalancesByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveBalance, error)

	// ReviewsByEmployee returns performance reviews for one employee,
	// most recent first.
	ReviewsByEmployee(ctx context.Context, employeeID string) ([]domain.PerformanceReview, error)
}
