// Package policy holds the static role policy tables: permitted record
// attributes, restricted intents, response redaction patterns, role
// system prompts, and advisory suggestion/quick-action tables. Access
// decisions are table lookups here, never re-derived role conditionals
// in the components that consume them.
package policy

import (
	"fmt"
	"regexp"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/intent"
)

// Record type keys for the attribute policy.
const (
	RecordEmployee    = "employee"
	RecordAttendance  = "attendance"
	RecordLeave       = "leave"
	RecordPerformance = "performance"
)

// RedactedPlaceholder replaces any response text matched by a role's
// redaction patterns.
const RedactedPlaceholder = "[REDACTED]"

// Redaction is one compiled response-filter pattern.
type Redaction struct {
	Name    string
	Pattern *regexp.Regexp
}

// QuickAction is one advisory follow-up suggestion. Never
// security-relevant.
type QuickAction struct {
	Label  string `json:"label" yaml:"label"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Tables is an immutable snapshot of every role policy table. A snapshot
// is replaced wholesale on reload, never mutated in place.
type Tables struct {
	// Attributes maps record type -> role -> ordered permitted attribute
	// names. An attribute absent from the list never enters a
	// SecureContext for that role.
	Attributes map[string]map[domain.Role][]string

	// RestrictedIntents maps role -> intents unconditionally denied for
	// that role, independent of data scoping.
	RestrictedIntents map[domain.Role][]string

	// Redactions maps role -> ordered response redaction patterns.
	Redactions map[domain.Role][]Redaction

	// SystemPrompts maps role -> the fixed prose handed to the
	// generative backend describing what it may help that role with.
	SystemPrompts map[domain.Role]string

	// Suggestions maps role -> static example prompts.
	Suggestions map[domain.Role][]string

	// QuickActions maps intent -> role -> advisory follow-ups.
	QuickActions map[string]map[domain.Role][]QuickAction

	// Snippets are company policy excerpts served for policy_query.
	Snippets []string
}

// PermittedAttributes returns the ordered attribute list for a record
// type and role. Unknown combinations return nil, which projects to an
// empty record.
func (t *Tables) PermittedAttributes(recordType string, role domain.Role) []string {
	byRole, ok := t.Attributes[recordType]
	if !ok {
		return nil
	}
	return byRole[role]
}

// IntentRestricted reports whether the intent is unconditionally denied
// for the role.
func (t *Tables) IntentRestricted(role domain.Role, tag string) bool {
	for _, restricted := range t.RestrictedIntents[role] {
		if restricted == tag {
			return true
		}
	}
	return false
}

// QuickActionsFor returns the advisory follow-ups for an intent/role
// pair, falling back to the role's general_query actions.
func (t *Tables) QuickActionsFor(tag string, role domain.Role) []QuickAction {
	if byRole, ok := t.QuickActions[tag]; ok {
		if actions, ok := byRole[role]; ok {
			return actions
		}
	}
	if byRole, ok := t.QuickActions[intent.GeneralQuery]; ok {
		return byRole[role]
	}
	return nil
}

// Defaults returns the compiled-in policy tables used when no policy
// file is configured.
func Defaults() *Tables {
	return &Tables{
		Attributes: map[string]map[domain.Role][]string{
			RecordEmployee: {
				domain.RoleAdmin: {
					"employee_id", "name", "email", "department",
					"designation", "joining_date", "salary", "manager_id",
				},
				domain.RoleManager: {
					"employee_id", "name", "email", "department",
					"designation", "joining_date",
				},
				domain.RoleEmployee: {
					"employee_id", "name", "email", "department",
					"designation", "joining_date",
				},
			},
			RecordAttendance: {
				domain.RoleAdmin:    {"employee_id", "date", "status", "check_in", "check_out", "work_hours"},
				domain.RoleManager:  {"employee_id", "date", "status", "check_in", "check_out", "work_hours"},
				domain.RoleEmployee: {"date", "status", "check_in", "check_out", "work_hours"},
			},
			RecordLeave: {
				domain.RoleAdmin:    {"employee_id", "leave_type", "total", "used", "remaining"},
				domain.RoleManager:  {"employee_id", "leave_type", "total", "used", "remaining"},
				domain.RoleEmployee: {"leave_type", "total", "used", "remaining"},
			},
			RecordPerformance: {
				domain.RoleAdmin:    {"employee_id", "review_date", "rating", "feedback", "goals"},
				domain.RoleManager:  {"employee_id", "review_date", "rating", "feedback", "goals"},
				domain.RoleEmployee: {"review_date", "rating", "goals"},
			},
		},
		RestrictedIntents: map[domain.Role][]string{
			domain.RoleEmployee: {
				intent.PayrollQuery,
				intent.SalaryComparison,
				intent.TeamReports,
				intent.OtherEmployeePerformance,
			},
			domain.RoleManager: {
				intent.PayrollQuery,
				intent.SalaryComparison,
				intent.OtherEmployeePerformance,
			},
			domain.RoleAdmin: {},
		},
		Redactions:    defaultRedactions(),
		SystemPrompts: defaultSystemPrompts(),
		Suggestions:   defaultSuggestions(),
		QuickActions:  defaultQuickActions(),
		Snippets:      defaultSnippets(),
	}
}

func defaultRedactions() map[domain.Role][]Redaction {
	monetary := mustRedaction("monetary_amount",
		`(?i)(?:\$|₹|€|£|usd|inr|eur)\s?\d[\d,]*(?:\.\d+)?`)
	salaryOf := mustRedaction("named_salary",
		`(?i)salary of [A-Z][a-z]+|[A-Z][a-z]+'s salary`)
	otherPerf := mustRedaction("other_employee_performance",
		`[A-Z][a-z]+'s (?:performance|rating|review)`)
	confidential := mustRedaction("confidential_hr",
		`(?i)(?:confidential|hr[ -]only|do not (?:share|disclose)|internal use only)`)

	return map[domain.Role][]Redaction{
		domain.RoleEmployee: {monetary, salaryOf, otherPerf, confidential},
		domain.RoleManager:  {monetary, salaryOf, otherPerf, confidential},
		// Admin keeps confidentiality markers out of responses but may
		// see amounts and identities.
		domain.RoleAdmin: {confidential},
	}
}

func mustRedaction(name, pattern string) Redaction {
	return Redaction{Name: name, Pattern: regexp.MustCompile(pattern)}
}

func defaultSystemPrompts() map[domain.Role]string {
	return map[domain.Role]string{
		domain.RoleEmployee: "You are an HR assistant for an employee. " +
			"You may help with the employee's own leave balances, attendance, " +
			"profile details, performance goals, and company policies. " +
			"You must not discuss salaries, payroll, or any other employee's records.",
		domain.RoleManager: "You are an HR assistant for a people manager. " +
			"You may help with the manager's own records, their direct reports' " +
			"attendance and leave, team summaries, and company policies. " +
			"You must not discuss salary or compensation figures.",
		domain.RoleAdmin: "You are an HR assistant for an HR administrator. " +
			"You may help with any employee record, payroll summaries, " +
			"attendance, leave, performance, and company policies.",
	}
}

func defaultSuggestions() map[domain.Role][]string {
	return map[domain.Role][]string{
		domain.RoleEmployee: {
			"What's my leave balance?",
			"Show my attendance this month",
			"How do I apply for leave?",
			"What is the work from home policy?",
		},
		domain.RoleManager: {
			"Show my team's attendance this week",
			"Who on my team is on leave today?",
			"Show my direct reports",
			"What is the leave carry-forward policy?",
		},
		domain.RoleAdmin: {
			"Generate a payroll summary for all departments",
			"Show attendance anomalies this month",
			"List employees joined this quarter",
			"Compare department headcounts",
		},
	}
}

func defaultQuickActions() map[string]map[domain.Role][]QuickAction {
	applyLeave := QuickAction{Label: "Apply for leave", Prompt: "How do I apply for leave?"}
	viewAttendance := QuickAction{Label: "View attendance", Prompt: "Show my attendance this month"}
	viewLeave := QuickAction{Label: "Check leave balance", Prompt: "What's my leave balance?"}
	teamAttendance := QuickAction{Label: "Team attendance", Prompt: "Show my team's attendance this week"}
	teamRoster := QuickAction{Label: "View team", Prompt: "Show my direct reports"}
	policies := QuickAction{Label: "Browse policies", Prompt: "What HR policies apply to me?"}

	return map[string]map[domain.Role][]QuickAction{
		intent.LeaveBalance: {
			domain.RoleEmployee: {applyLeave, viewAttendance},
			domain.RoleManager:  {applyLeave, teamAttendance},
			domain.RoleAdmin:    {viewAttendance},
		},
		intent.LeaveApplication: {
			domain.RoleEmployee: {viewLeave, policies},
			domain.RoleManager:  {viewLeave, policies},
			domain.RoleAdmin:    {viewLeave},
		},
		intent.AttendanceQuery: {
			domain.RoleEmployee: {viewLeave, applyLeave},
			domain.RoleManager:  {teamRoster, viewLeave},
			domain.RoleAdmin:    {teamRoster},
		},
		intent.TeamReports: {
			domain.RoleManager: {teamAttendance, viewLeave},
			domain.RoleAdmin:   {teamAttendance},
		},
		intent.PolicyQuery: {
			domain.RoleEmployee: {viewLeave, applyLeave},
			domain.RoleManager:  {viewLeave, applyLeave},
			domain.RoleAdmin:    {viewLeave},
		},
		intent.GeneralQuery: {
			domain.RoleEmployee: {viewLeave, viewAttendance, policies},
			domain.RoleManager:  {teamAttendance, teamRoster, policies},
			domain.RoleAdmin:    {teamAttendance, policies},
		},
	}
}

func defaultSnippets() []string {
	return []string{
		"Leave policy: employees accrue 1.5 casual leaves and 1 sick leave per month. Unused earned leave carries forward up to 30 days.",
		"Attendance policy: standard working hours are 9:00-18:00 with a 45 hour work week. Three late check-ins in a month count as a half day.",
		"Work from home: up to 2 days per week with manager approval, requested at least a day in advance.",
		"Probation: new joiners are on probation for 90 days and accrue leave but cannot carry it forward until confirmation.",
	}
}

// validate checks internal consistency of a tables snapshot: every
// restricted intent must be in the classifier vocabulary and every role
// must carry a system prompt.
func (t *Tables) validate() error {
	known := make(map[string]bool, len(intent.All))
	for _, tag := range intent.All {
		known[tag] = true
	}
	for role, tags := range t.RestrictedIntents {
		if _, err := domain.ParseRole(string(role)); err != nil {
			return err
		}
		for _, tag := range tags {
			if !known[tag] {
				return fmt.Errorf("restricted intent %q for role %s is not in the intent vocabulary", tag, role)
			}
		}
	}
	for _, role := range domain.Roles {
		if t.SystemPrompts[role] == "" {
			return fmt.Errorf("missing system prompt for role %s", role)
		}
	}
	return nil
}
