// Package intent maps free-text queries onto a closed vocabulary of
// symbolic intent tags. Classification is a pure function of the input
// text: no external calls, same input always yields the same tag.
package intent

import "strings"

// Closed intent vocabulary.
const (
	LeaveBalance             = "leave_balance"
	LeaveApplication         = "leave_application"
	AttendanceQuery          = "attendance_query"
	SalaryComparison         = "salary_comparison"
	PayrollQuery             = "payroll_query"
	OtherEmployeePerformance = "other_employee_performance"
	PerformanceQuery         = "performance_query"
	PolicyQuery              = "policy_query"
	TeamReports              = "team_reports"
	GeneralQuery             = "general_query"
)

// All lists every tag the classifier can emit.
var All = []string{
	LeaveBalance,
	LeaveApplication,
	AttendanceQuery,
	SalaryComparison,
	PayrollQuery,
	OtherEmployeePerformance,
	PerformanceQuery,
	PolicyQuery,
	TeamReports,
	GeneralQuery,
}

// rule is one ordered keyword predicate. The first rule with a matching
// phrase wins, so ordering is load-bearing: specific phrasings
// ("team's attendance", "salary comparison") must be tested before the
// broader tags they would otherwise collapse into.
type rule struct {
	tag        string
	confidence float64
	phrases    []string
}

var rules = []rule{
	{LeaveBalance, 0.95, []string{
		"leave balance", "leaves left", "leaves remaining", "remaining leave",
		"how many leaves", "leave quota", "leaves do i have",
	}},
	{LeaveApplication, 0.9, []string{
		"apply for leave", "leave application", "request leave", "take leave",
		"take a leave", "time off", "day off",
	}},
	{AttendanceQuery, 0.9, []string{
		"attendance", "check-in", "check in", "checked in", "check-out",
		"check out", "work hours", "working hours", "present", "absent",
	}},
	{SalaryComparison, 0.9, []string{
		"compare salar", "salary comparison", "highest paid", "lowest paid",
		"who earns", "earns more", "earns less",
	}},
	{PayrollQuery, 0.9, []string{
		"salary", "salaries", "payroll", "payslip", "pay slip", "paycheck",
		"compensation", "ctc", "take home",
	}},
	{OtherEmployeePerformance, 0.85, []string{
		"his performance", "her performance", "their performance",
		"'s performance", "performance of", "his rating", "her rating",
		"'s rating", "rating of",
	}},
	{PerformanceQuery, 0.85, []string{
		"performance", "review", "rating", "appraisal", "feedback", "goals",
	}},
	{PolicyQuery, 0.85, []string{
		"policy", "policies", "handbook", "holiday", "holidays", "rules",
		"code of conduct",
	}},
	{TeamReports, 0.85, []string{
		"my team", "team report", "team members", "direct reports",
		"my reports", "who reports to me",
	}},
}

// Classify lowers the text, tests the ordered rule list, and returns the
// first matching tag with its confidence. Unmatched text falls through
// to general_query.
func Classify(text string) (string, float64) {
	lowered := strings.ToLower(text)
	for _, r := range rules {
		for _, p := range r.phrases {
			if strings.Contains(lowered, p) {
				return r.tag, r.confidence
			}
		}
	}
	return GeneralQuery, 0.4
}
