package domain

import "time"

// Employee is a row from the HR directory. The engine only ever reads
// these; writes belong to the rest of the HR application.
type Employee struct {
	ID          string
	Name        string
	Email       string
	Department  string
	Designation string
	JoiningDate time.Time
	Salary      float64
	ManagerID   string
}

// Attributes returns the employee as a named-attribute map so the scoped
// fetchers can project it through a role's permitted-attribute list.
func (e Employee) Attributes() map[string]any {
	return map[string]any{
		"employee_id":  e.ID,
		"name":         e.Name,
		"email":        e.Email,
		"department":   e.Department,
		"designation":  e.Designation,
		"joining_date": e.JoiningDate.Format("2006-01-02"),
		"salary":       e.Salary,
		"manager_id":   e.ManagerID,
	}
}

// AttendanceRecord is a single day of attendance for one employee.
type AttendanceRecord struct {
	EmployeeID string
	Date       time.Time
	Status     string // "present", "absent", "half_day", "leave"
	CheckIn    string
	CheckOut   string
	WorkHours  float64
}

func (a AttendanceRecord) Attributes() map[string]any {
	return map[string]any{
		"employee_id": a.EmployeeID,
		"date":        a.Date.Format("2006-01-02"),
		"status":      a.Status,
		"check_in":    a.CheckIn,
		"check_out":   a.CheckOut,
		"work_hours":  a.WorkHours,
	}
}

// LeaveBalance is the remaining allowance of one leave type.
type LeaveBalance struct {
	EmployeeID string
	LeaveType  string // "casual", "sick", "earned"
	Total      int
	Used       int
}

func (l LeaveBalance) Remaining() int { return l.Total - l.Used }

func (l LeaveBalance) Attributes() map[string]any {
	return map[string]any{
		"employee_id": l.EmployeeID,
		"leave_type":  l.LeaveType,
		"total":       l.Total,
		"used":        l.Used,
		"remaining":   l.Remaining(),
	}
}

// PerformanceReview is one review cycle entry for an employee.
type PerformanceReview struct {
	EmployeeID string
	ReviewDate time.Time
	Rating     float64
	Feedback   string
	Goals      string
}

func (p PerformanceReview) Attributes() map[string]any {
	return map[string]any{
		"employee_id": p.EmployeeID,
		"review_date": p.ReviewDate.Format("2006-01-02"),
		"rating":      p.Rating,
		"feedback":    p.Feedback,
		"goals":       p.Goals,
	}
}
