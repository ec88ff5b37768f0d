package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyKnownPhrasings(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"How many sick leaves do I have left?", LeaveBalance},
		{"what's my leave balance", LeaveBalance},
		{"I want to apply for leave next week", LeaveApplication},
		{"can I take a day off on Friday", LeaveApplication},
		{"Show my attendance this week", AttendanceQuery},
		{"when did I check in yesterday", AttendanceQuery},
		{"who is the highest paid engineer", SalaryComparison},
		{"compare salaries across the team", SalaryComparison},
		{"What is John's salary in the company?", PayrollQuery},
		{"show me the payroll summary", PayrollQuery},
		{"what was Priya's performance rating", OtherEmployeePerformance},
		{"tell me about the performance of Ravi", OtherEmployeePerformance},
		{"show my performance review", PerformanceQuery},
		{"what feedback did I get", PerformanceQuery},
		{"what is the company holiday policy", PolicyQuery},
		{"where is the employee handbook", PolicyQuery},
		{"list my team members", TeamReports},
		{"who reports to me", TeamReports},
		{"hello there", GeneralQuery},
	}
	for _, tc := range cases {
		tag, confidence := Classify(tc.query)
		require.Equal(t, tc.want, tag, "query: %s", tc.query)
		require.Greater(t, confidence, 0.0)
	}
}

// "team's attendance" must resolve to attendance, not team reports, so
// a manager's roster query stays on the attendance path.
func TestClassifyTeamAttendanceBeatsTeamReports(t *testing.T) {
	tag, _ := Classify("Show my team's attendance this week")
	require.Equal(t, AttendanceQuery, tag)
}

func TestClassifySalaryComparisonBeatsPayroll(t *testing.T) {
	tag, _ := Classify("salary comparison for the engineering team")
	require.Equal(t, SalaryComparison, tag)
}

func TestClassifyOtherPerformanceBeatsOwnPerformance(t *testing.T) {
	tag, _ := Classify("what is her performance rating this cycle")
	require.Equal(t, OtherEmployeePerformance, tag)
}

func TestClassifyIsDeterministic(t *testing.T) {
	query := "How many casual leaves do I have left?"
	tag1, c1 := Classify(query)
	for i := 0; i < 10; i++ {
		tag2, c2 := Classify(query)
		require.Equal(t, tag1, tag2)
		require.Equal(t, c1, c2)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	upper, _ := Classify("SHOW MY LEAVE BALANCE")
	lower, _ := Classify("show my leave balance")
	require.Equal(t, lower, upper)
}

func TestClassifyEmitsOnlyKnownTags(t *testing.T) {
	known := make(map[string]bool, len(All))
	for _, tag := range All {
		known[tag] = true
	}
	queries := []string{
		"", "salary", "leave", "attendance", "random words entirely",
		"policy on unpaid leave balance", "team report please",
	}
	for _, q := range queries {
		tag, _ := Classify(q)
		require.True(t, known[tag], "unknown tag %q for %q", tag, q)
	}
}
