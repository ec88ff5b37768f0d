package hrstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stafflane/hr-copilot/internal/domain"
)

// SQLiteDirectory reads the HR directory tables out of a SQLite
// database.
type SQLiteDirectory struct {
	db *sql.DB
}

// OpenSQLite opens the directory database and ensures the schema.
func OpenSQLite(path string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open hr db: %w", err)
	}
	d := &SQLiteDirectory{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate hr db: %w", err)
	}
	return d, nil
}

// NewSQLiteDirectory wraps an already-open database, ensuring the
// schema. Used by tests that share one handle.
func NewSQLiteDirectory(db *sql.DB) (*SQLiteDirectory, error) {
	d := &SQLiteDirectory{db: db}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("migrate hr db: %w", err)
	}
	return d, nil
}

// Close closes the underlying database handle.
func (d *SQLiteDirectory) Close() error { return d.db.Close() }

func (d *SQLiteDirectory) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			employee_id  TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL,
			department   TEXT NOT NULL,
			designation  TEXT NOT NULL,
			joining_date TEXT NOT NULL,
			salary       REAL NOT NULL DEFAULT 0,
			manager_id   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			employee_id TEXT NOT NULL,
			date        TEXT NOT NULL,
			status      TEXT NOT NULL,
			check_in    TEXT NOT NULL DEFAULT '',
			check_out   TEXT NOT NULL DEFAULT '',
			work_hours  REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (employee_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS leave_balances (
			employee_id TEXT NOT NULL,
			leave_type  TEXT NOT NULL,
			total       INTEGER NOT NULL,
			used        INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (employee_id, leave_type)
		)`,
		`CREATE TABLE IF NOT EXISTS performance_reviews (
			employee_id TEXT NOT NULL,
			review_date TEXT NOT NULL,
			rating      REAL NOT NULL,
			feedback    TEXT NOT NULL DEFAULT '',
			goals       TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (employee_id, review_date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const dateLayout = "2006-01-02"

func (d *SQLiteDirectory) FindByID(ctx context.Context, employeeID string) (domain.Employee, error) {
	row := d.db.QueryRowContext(ctx, `
SELECT employee_id, name, email, department, designation, joining_date, salary, manager_id
FROM employees WHERE employee_id = ?`, employeeID)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return domain.Employee{}, domain.ErrNotFound("employee %s not found", employeeID)
	}
	if err != nil {
		return domain.Employee{}, fmt.Errorf("find employee: %w", err)
	}
	return emp, nil
}

func (d *SQLiteDirectory) FindByManager(ctx context.Context, managerID string) ([]domain.Employee, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT employee_id, name, email, department, designation, joining_date, salary, manager_id
FROM employees WHERE manager_id = ? ORDER BY employee_id`, managerID)
	if err != nil {
		return nil, fmt.Errorf("find by manager: %w", err)
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (d *SQLiteDirectory) ListAll(ctx context.Context) ([]domain.Employee, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT employee_id, name, email, department, designation, joining_date, salary, manager_id
FROM employees ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (d *SQLiteDirectory) AttendanceByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]domain.AttendanceRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT employee_id, date, status, check_in, check_out, work_hours
FROM attendance WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		employeeID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("attendance query: %w", err)
	}
	defer rows.Close()

	var out []domain.AttendanceRecord
	for rows.Next() {
		var rec domain.AttendanceRecord
		var date string
		if err := rows.Scan(&rec.EmployeeID, &date, &rec.Status, &rec.CheckIn, &rec.CheckOut, &rec.WorkHours); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Date, _ = time.Parse(dateLayout, date)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *SQLiteDirectory) LeaveBalancesByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveBalance, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT employee_id, leave_type, total, used
FROM leave_balances WHERE employee_id = ? ORDER BY leave_type`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("leave query: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaveBalance
	for rows.Next() {
		var lb domain.LeaveBalance
		if err := rows.Scan(&lb.EmployeeID, &lb.LeaveType, &lb.Total, &lb.Used); err != nil {
			return nil, fmt.Errorf("scan leave: %w", err)
		}
		out = append(out, lb)
	}
	return out, rows.Err()
}

func (d *SQLiteDirectory) ReviewsByEmployee(ctx context.Context, employeeID string) ([]domain.PerformanceReview, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT employee_id, review_date, rating, feedback, goals
FROM performance_reviews WHERE employee_id = ? ORDER BY review_date DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("review query: %w", err)
	}
	defer rows.Close()

	var out []domain.PerformanceReview
	for rows.Next() {
		var pr domain.PerformanceReview
		var date string
		if err := rows.Scan(&pr.EmployeeID, &date, &pr.Rating, &pr.Feedback, &pr.Goals); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		pr.ReviewDate, _ = time.Parse(dateLayout, date)
		out = append(out, pr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (domain.Employee, error) {
	var emp domain.Employee
	var joining string
	err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Department,
		&emp.Designation, &joining, &emp.Salary, &emp.ManagerID)
	if err != nil {
		return domain.Employee{}, err
	}
	emp.JoiningDate, _ = time.Parse(dateLayout, joining)
	return emp, nil
}

// Seed inserts demo directory rows when the employees table is empty.
// Idempotent, intended for local development.
func (d *SQLiteDirectory) Seed(ctx context.Context) error {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return fmt.Errorf("seed count: %w", err)
	}
	if count > 0 {
		return nil
	}

	employees := []domain.Employee{
		{ID: "E001", Name: "Asha Nair", Email: "asha.nair@example.com", Department: "HR", Designation: "HR Director", Salary: 185000, ManagerID: ""},
		{ID: "E002", Name: "Ravi Menon", Email: "ravi.menon@example.com", Department: "Engineering", Designation: "Engineering Manager", Salary: 165000, ManagerID: "E001"},
		{ID: "E003", Name: "Lena Fischer", Email: "lena.fischer@example.com", Department: "Engineering", Designation: "Software Engineer", Salary: 120000, ManagerID: "E002"},
		{ID: "E004", Name: "Tom Okafor", Email: "tom.okafor@example.com", Department: "Engineering", Designation: "Software Engineer", Salary: 118000, ManagerID: "E002"},
		{ID: "E005", Name: "Mei Lin", Email: "mei.lin@example.com", Department: "Finance", Designation: "Accountant", Salary: 98000, ManagerID: "E001"},
	}
	for _, emp := range employees {
		if _, err := d.db.ExecContext(ctx, `
INSERT INTO employees(employee_id, name, email, department, designation, joining_date, salary, manager_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			emp.ID, emp.Name, emp.Email, emp.Department, emp.Designation,
			"2022-04-01", emp.Salary, emp.ManagerID); err != nil {
			return fmt.Errorf("seed employee %s: %w", emp.ID, err)
		}
	}

	today := time.Now().UTC()
	for _, emp := range employees {
		for i := 0; i < 10; i++ {
			day := today.AddDate(0, 0, -i)
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				continue
			}
			if _, err := d.db.ExecContext(ctx, `
INSERT OR IGNORE INTO attendance(employee_id, date, status, check_in, check_out, work_hours)
VALUES (?, ?, 'present', '09:05', '18:10', 8.5)`,
				emp.ID, day.Format(dateLayout)); err != nil {
				return fmt.Errorf("seed attendance: %w", err)
			}
		}
		for _, lt := range []struct {
			kind  string
			total int
			used  int
		}{{"casual", 12, 4}, {"sick", 10, 1}, {"earned", 15, 0}} {
			if _, err := d.db.ExecContext(ctx, `
INSERT OR IGNORE INTO leave_balances(employee_id, leave_type, total, used)
VALUES (?, ?, ?, ?)`, emp.ID, lt.kind, lt.total, lt.used); err != nil {
				return fmt.Errorf("seed leave: %w", err)
			}
		}
		if _, err := d.db.ExecContext(ctx, `
INSERT OR IGNORE INTO performance_reviews(employee_id, review_date, rating, feedback, goals)
VALUES (?, '2026-01-15', 4.1, 'Consistent delivery across the half.', 'Lead one cross-team initiative.')`,
			emp.ID); err != nil {
			return fmt.Errorf("seed review: %w", err)
		}
	}
	return nil
}
