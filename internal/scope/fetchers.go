// Package scope implements the scoped data fetchers and the context
// builder. Fetchers enforce identity scoping themselves rather than
// trusting the caller: the security gate should already have rejected a
// cross-identity request, but every fetch re-checks as defense in depth.
package scope

import (
	"context"
	"log"
	"time"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/hrstore"
	"github.com/stafflane/hr-copilot/internal/policy"
)

// Fetchers wraps the HR directory with role/identity scoping and
// attribute projection.
type Fetchers struct {
	dir    hrstore.Directory
	logger *log.Logger
}

// NewFetchers builds the fetcher set over a directory.
func NewFetchers(dir hrstore.Directory, logger *log.Logger) *Fetchers {
	return &Fetchers{dir: dir, logger: logger}
}

// authorizeTarget enforces identity scoping: admin reaches any identity,
// a manager reaches themselves and their direct reports, an employee
// only themselves.
func (f *Fetchers) authorizeTarget(ctx context.Context, requester domain.Identity, targetID string) error {
	if targetID == requester.EmployeeID {
		return nil
	}
	switch requester.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleManager:
		reports, err := f.dir.FindByManager(ctx, requester.EmployeeID)
		if err != nil {
			return domain.ErrUpstream("resolve direct reports", err)
		}
		for _, rep := range reports {
			if rep.ID == targetID {
				return nil
			}
		}
		return domain.ErrAccessDenied("employee %s does not report to requester", targetID)
	default:
		return domain.ErrAccessDenied("employees may only access their own records")
	}
}

// Project keeps only the permitted attributes, preserving the policy's
// attribute order in iteration-independent form.
func Project(attrs map[string]any, allowed []string) map[string]any {
	out := make(map[string]any, len(allowed))
	for _, name := range allowed {
		if v, ok := attrs[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Profile fetches one employee profile projected through the role's
// attribute policy.
func (f *Fetchers) Profile(ctx context.Context, requester domain.Identity, targetID string, tables *policy.Tables) (map[string]any, error) {
	if err := f.authorizeTarget(ctx, requester, targetID); err != nil {
		return nil, err
	}
	emp, err := f.dir.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return Project(emp.Attributes(), tables.PermittedAttributes(policy.RecordEmployee, requester.Role)), nil
}

// AllProfiles fetches every employee profile. Admin only; other roles
// are rejected outright.
func (f *Fetchers) AllProfiles(ctx context.Context, requester domain.Identity, tables *policy.Tables) ([]map[string]any, error) {
	if requester.Role != domain.RoleAdmin {
		return nil, domain.ErrAccessDenied("company-wide records require the admin role")
	}
	emps, err := f.dir.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrUpstream("list employees", err)
	}
	allowed := tables.PermittedAttributes(policy.RecordEmployee, requester.Role)
	out := make([]map[string]any, 0, len(emps))
	for _, emp := range emps {
		out = append(out, Project(emp.Attributes(), allowed))
	}
	return out, nil
}

// TeamRoster fetches the requester's direct reports. Employees have no
// reports and are rejected.
func (f *Fetchers) TeamRoster(ctx context.Context, requester domain.Identity, tables *policy.Tables) ([]map[string]any, error) {
	if requester.Role == domain.RoleEmployee {
		return nil, domain.ErrAccessDenied("team rosters require the manager or admin role")
	}
	reports, err := f.dir.FindByManager(ctx, requester.EmployeeID)
	if err != nil {
		return nil, domain.ErrUpstream("resolve direct reports", err)
	}
	allowed := tables.PermittedAttributes(policy.RecordEmployee, requester.Role)
	out := make([]map[string]any, 0, len(reports))
	for _, emp := range reports {
		out = append(out, Project(emp.Attributes(), allowed))
	}
	return out, nil
}

// Attendance fetches one employee's attendance within a window.
func (f *Fetchers) Attendance(ctx context.Context, requester domain.Identity, targetID string, from, to time.Time, tables *policy.Tables) ([]map[string]any, error) {
	if err := f.authorizeTarget(ctx, requester, targetID); err != nil {
		return nil, err
	}
	recs, err := f.dir.AttendanceByEmployeeAndRange(ctx, targetID, from, to)
	if err != nil {
		return nil, domain.ErrUpstream("attendance lookup", err)
	}
	allowed := tables.PermittedAttributes(policy.RecordAttendance, requester.Role)
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Project(rec.Attributes(), allowed))
	}
	return out, nil
}

// Leave fetches one employee's leave balances.
func (f *Fetchers) Leave(ctx context.Context, requester domain.Identity, targetID string, tables *policy.Tables) ([]map[string]any, error) {
	if err := f.authorizeTarget(ctx, requester, targetID); err != nil {
		return nil, err
	}
	balances, err := f.dir.LeaveBalancesByEmployee(ctx, targetID)
	if err != nil {
		return nil, domain.ErrUpstream("leave lookup", err)
	}
	allowed := tables.PermittedAttributes(policy.RecordLeave, requester.Role)
	out := make([]map[string]any, 0, len(balances))
	for _, lb := range balances {
		out = append(out, Project(lb.Attributes(), allowed))
	}
	return out, nil
}

// Performance fetches one employee's performance reviews.
func (f *Fetchers) Performance(ctx context.Context, requester domain.Identity, targetID string, tables *policy.Tables) ([]map[string]any, error) {
	if err := f.authorizeTarget(ctx, requester, targetID); err != nil {
		return nil, err
	}
	reviews, err := f.dir.ReviewsByEmployee(ctx, targetID)
	if err != nil {
		return nil, domain.ErrUpstream("review lookup", err)
	}
	allowed := tables.PermittedAttributes(policy.RecordPerformance, requester.Role)
	out := make([]map[string]any, 0, len(reviews))
	for _, pr := range reviews {
		out = append(out, Project(pr.Attributes(), allowed))
	}
	return out, nil
}
