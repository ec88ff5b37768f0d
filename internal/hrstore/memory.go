package hrstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stafflane/hr-copilot/internal/domain"
)

// MemoryDirectory is an in-memory Directory used by tests.
type MemoryDirectory struct {
	mu         sync.RWMutex
	employees  map[string]domain.Employee
	attendance map[string][]domain.AttendanceRecord
	leave      map[string][]domain.LeaveBalance
	reviews    map[string][]domain.PerformanceReview
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		employees:  make(map[string]domain.Employee),
		attendance: make(map[string][]domain.AttendanceRecord),
		leave:      make(map[string][]domain.LeaveBalance),
		reviews:    make(map[string][]domain.PerformanceReview),
	}
}

// AddEmployee registers an employee row.
func (m *MemoryDirectory) AddEmployee(emp domain.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
}

// AddAttendance appends attendance rows for an employee.
func (m *MemoryDirectory) AddAttendance(recs ...domain.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.attendance[rec.EmployeeID] = append(m.attendance[rec.EmployeeID], rec)
	}
}

// AddLeave appends leave balances for an employee.
func (m *MemoryDirectory) AddLeave(balances ...domain.LeaveBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lb := range balances {
		m.leave[lb.EmployeeID] = append(m.leave[lb.EmployeeID], lb)
	}
}

// AddReview appends performance reviews for an employee.
func (m *MemoryDirectory) AddReview(reviews ...domain.PerformanceReview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pr := range reviews {
		m.reviews[pr.EmployeeID] = append(m.reviews[pr.EmployeeID], pr)
	}
}

func (m *MemoryDirectory) FindByID(_ context.Context, employeeID string) (domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[employeeID]
	if !ok {
		return domain.Employee{}, domain.ErrNotFound("employee %s not found", employeeID)
	}
	return emp, nil
}

func (m *MemoryDirectory) FindByManager(_ context.Context, managerID string) ([]domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Employee
	for _, emp := range m.employees {
		if emp.ManagerID == managerID {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryDirectory) ListAll(_ context.Context) ([]domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryDirectory) AttendanceByEmployeeAndRange(_ context.Context, employeeID string, from, to time.Time) ([]domain.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.AttendanceRecord
	for _, rec := range m.attendance[employeeID] {
		if !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryDirectory) LeaveBalancesByEmployee(_ context.Context, employeeID string) ([]domain.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.LeaveBalance(nil), m.leave[employeeID]...), nil
}

func (m *MemoryDirectory) ReviewsByEmployee(_ context.Context, employeeID string) ([]domain.PerformanceReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]domain.PerformanceReview(nil), m.reviews[employeeID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewDate.After(out[j].ReviewDate) })
	return out, nil
}
