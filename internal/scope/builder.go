package scope

import (
	"context"
	"log"
	"time"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/intent"
	"github.com/stafflane/hr-copilot/internal/policy"
)

// Builder assembles the SecureContext for a classified intent by
// invoking only the fetchers that intent needs. The context is built
// fresh per request and never cached.
type Builder struct {
	fetchers *Fetchers
	logger   *log.Logger
	now      func() time.Time
}

// NewBuilder creates a context builder over a fetcher set.
func NewBuilder(fetchers *Fetchers, logger *log.Logger) *Builder {
	return &Builder{fetchers: fetchers, logger: logger, now: time.Now}
}

// Build assembles the role-scoped data bundle for one turn. The target
// identity for self-service intents is always the requester's own
// employee id; team data comes exclusively from the direct-report
// relation. An AccessDeniedError propagates as a denial; an empty
// context is reported by the caller as a "no data found" outcome, which
// is not a denial.
func (b *Builder) Build(ctx context.Context, requester domain.Identity, tag string, plan *domain.QueryPlan, tables *policy.Tables) (*domain.SecureContext, error) {
	sctx := &domain.SecureContext{Role: requester.Role}
	self := requester.EmployeeID

	from, to := b.window(plan)

	switch tag {
	case intent.LeaveBalance:
		leave, err := b.fetchers.Leave(ctx, requester, self, tables)
		if err != nil {
			return nil, err
		}
		sctx.Leave = leave

	case intent.LeaveApplication:
		leave, err := b.fetchers.Leave(ctx, requester, self, tables)
		if err != nil {
			return nil, err
		}
		sctx.Leave = leave
		sctx.PolicySnippets = tables.Snippets

	case intent.AttendanceQuery:
		attendance, err := b.fetchers.Attendance(ctx, requester, self, from, to, tables)
		if err != nil {
			return nil, err
		}
		sctx.Attendance = attendance

		// Managers also see their direct reports' attendance; the
		// targets come from the reporting relation, never from the
		// query text.
		if requester.Role == domain.RoleManager || requester.Role == domain.RoleAdmin {
			team, err := b.fetchers.TeamRoster(ctx, requester, tables)
			if err != nil {
				return nil, err
			}
			for _, member := range team {
				id, ok := member["employee_id"].(string)
				if !ok {
					continue
				}
				memberAttendance, err := b.fetchers.Attendance(ctx, requester, id, from, to, tables)
				if err != nil {
					return nil, err
				}
				sctx.Attendance = append(sctx.Attendance, memberAttendance...)
			}
			sctx.Team = team
		}

	case intent.PayrollQuery, intent.SalaryComparison:
		// Only admin passes the gate for these; the fetcher re-checks.
		profiles, err := b.fetchers.AllProfiles(ctx, requester, tables)
		if err != nil {
			return nil, err
		}
		sctx.Team = profiles

	case intent.PerformanceQuery, intent.OtherEmployeePerformance:
		performance, err := b.fetchers.Performance(ctx, requester, self, tables)
		if err != nil {
			return nil, err
		}
		sctx.Performance = performance

	case intent.TeamReports:
		team, err := b.fetchers.TeamRoster(ctx, requester, tables)
		if err != nil {
			return nil, err
		}
		sctx.Team = team

	case intent.PolicyQuery:
		sctx.PolicySnippets = tables.Snippets

	default: // general_query
		profile, err := b.fetchers.Profile(ctx, requester, self, tables)
		if err != nil {
			return nil, err
		}
		sctx.Employee = profile
		sctx.PolicySnippets = tables.Snippets
	}

	return sctx, nil
}

// window maps a plan timeframe onto a concrete date range, defaulting to
// the current month.
func (b *Builder) window(plan *domain.QueryPlan) (time.Time, time.Time) {
	now := b.now().UTC()
	timeframe := "this_month"
	if plan != nil && plan.Timeframe != "" {
		timeframe = plan.Timeframe
	}
	switch timeframe {
	case "today":
		day := now.Truncate(24 * time.Hour)
		return day, now
	case "this_week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // treat Sunday as end of week
		}
		start := now.AddDate(0, 0, -(weekday - 1)).Truncate(24 * time.Hour)
		return start, now
	case "all":
		return time.Time{}, now
	default: // this_month
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, now
	}
}
