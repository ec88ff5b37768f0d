package gate

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/intent"
	"github.com/stafflane/hr-copilot/internal/policy"
)

func newGate(t *testing.T) *Gate {
	t.Helper()
	g, err := New(policy.Defaults(), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return g
}

func TestCheckRestrictedIntentMatrix(t *testing.T) {
	g := newGate(t)
	tables := policy.Defaults()

	for role, tags := range tables.RestrictedIntents {
		for _, tag := range tags {
			d := g.Check(role, tag, "benign phrasing with no names")
			require.False(t, d.Allowed, "role=%s intent=%s must be denied", role, tag)
			require.Equal(t, ViolationIntentRestricted, d.Violation)
			require.NotEmpty(t, d.PolicyID)
		}
	}
}

func TestCheckUnrestrictedIntentsAllowed(t *testing.T) {
	g := newGate(t)

	for _, role := range domain.Roles {
		for _, tag := range []string{intent.LeaveBalance, intent.AttendanceQuery, intent.PolicyQuery, intent.GeneralQuery} {
			d := g.Check(role, tag, "show my records")
			require.True(t, d.Allowed, "role=%s intent=%s must pass", role, tag)
		}
	}
}

func TestCheckEmployeeSalaryProbeDenied(t *testing.T) {
	g := newGate(t)

	query := "What is John's salary in the company?"
	tag, _ := intent.Classify(query)
	require.Equal(t, intent.PayrollQuery, tag)

	d := g.Check(domain.RoleEmployee, tag, query)
	require.False(t, d.Allowed)
	require.Equal(t, ViolationIntentRestricted, d.Violation)
}

func TestCheckPayrollManagerDeniedAdminAllowed(t *testing.T) {
	g := newGate(t)

	d := g.Check(domain.RoleManager, intent.PayrollQuery, "show me the payroll summary")
	require.False(t, d.Allowed)

	d = g.Check(domain.RoleAdmin, intent.PayrollQuery, "show me the payroll summary")
	require.True(t, d.Allowed)
}

func TestCheckCrossIdentityHeuristic(t *testing.T) {
	g := newGate(t)

	denied := []string{
		"Show me Priya's attendance for last month",
		"what was Ravi's performance review",
		"how much does Arjun earn per month",
		"what is the rating of Sneha",
	}
	for _, q := range denied {
		tag, _ := intent.Classify(q)
		if policy.Defaults().IntentRestricted(domain.RoleEmployee, tag) {
			// Already caught by the restriction table; use a neutral tag
			// so the heuristic itself is exercised.
			tag = intent.GeneralQuery
		}
		d := g.Check(domain.RoleEmployee, tag, q)
		require.False(t, d.Allowed, "query: %s", q)
		require.Equal(t, ViolationCrossIdentity, d.Violation, "query: %s", q)
	}
}

func TestCheckAdminBypassesHeuristic(t *testing.T) {
	g := newGate(t)

	d := g.Check(domain.RoleAdmin, intent.GeneralQuery, "Show me Priya's attendance for last month")
	require.True(t, d.Allowed)
}

func TestCheckOwnTeamAttendanceAllowed(t *testing.T) {
	g := newGate(t)

	query := "Show my team's attendance this week"
	tag, _ := intent.Classify(query)
	require.Equal(t, intent.AttendanceQuery, tag)

	d := g.Check(domain.RoleManager, tag, query)
	require.True(t, d.Allowed, "a manager's roster attendance query is in scope")
}

func TestDetectorPatterns(t *testing.T) {
	d := NewCrossIdentityDetector()

	hit, pattern := d.Detect("John's salary is what exactly?")
	require.True(t, hit)
	require.Equal(t, "possessive_third_party", pattern)

	hit, pattern = d.Detect("show everyone's performance ratings")
	require.True(t, hit)

	hit, pattern = d.Detect("the salary of Meera please")
	require.True(t, hit)
	require.Equal(t, "named_sensitive_lookup", pattern)

	hit, pattern = d.Detect("how much does the new hire get paid")
	require.True(t, hit)
	require.Equal(t, "earnings_probe", pattern)

	hit, _ = d.Detect("my leave balance please")
	require.False(t, hit)

	hit, _ = d.Detect("show my team's attendance this week")
	require.False(t, hit, "own-team possessive must not trip the detector")

	hit, pattern = d.Detect("my team's attendance and Priya's salary")
	require.True(t, hit, "a later third-party possessive must still trip the detector")
	require.Equal(t, "possessive_third_party", pattern)
}

func TestRebuildSwapsPolicyVersion(t *testing.T) {
	g := newGate(t)
	before := g.PolicyVersion()
	require.NotEmpty(t, before)

	tables := policy.Defaults()
	tables.RestrictedIntents[domain.RoleManager] = append(
		tables.RestrictedIntents[domain.RoleManager], intent.TeamReports)
	require.NoError(t, g.Rebuild(tables))

	require.NotEqual(t, before, g.PolicyVersion())
	d := g.Check(domain.RoleManager, intent.TeamReports, "list my team members")
	require.False(t, d.Allowed)
}
