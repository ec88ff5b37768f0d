package policy

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/intent"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestLoaderDefaultsWithoutFile(t *testing.T) {
	l := NewLoader("", testLogger())
	require.NoError(t, l.Load())

	tables := l.Tables()
	require.NotNil(t, tables)
	require.True(t, tables.IntentRestricted(domain.RoleEmployee, intent.PayrollQuery))
}

func TestLoaderMissingFileFallsBackToDefaults(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	require.NoError(t, l.Load())
	require.NotNil(t, l.Tables())
}

func TestLoaderAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	overrides := `
restricted_intents:
  manager:
    - payroll_query
    - salary_comparison
    - other_employee_performance
    - team_reports
redactions:
  employee:
    - name: ssn
      pattern: '\d{3}-\d{2}-\d{4}'
suggestions:
  employee:
    - "Check my leave balance"
snippets:
  - "Leave requests need three days notice."
`
	require.NoError(t, os.WriteFile(path, []byte(overrides), 0o644))

	l := NewLoader(path, testLogger())
	require.NoError(t, l.Load())

	tables := l.Tables()
	require.True(t, tables.IntentRestricted(domain.RoleManager, intent.TeamReports))
	require.Len(t, tables.Redactions[domain.RoleEmployee], 1)
	require.Equal(t, "ssn", tables.Redactions[domain.RoleEmployee][0].Name)
	require.Equal(t, []string{"Check my leave balance"}, tables.Suggestions[domain.RoleEmployee])
	require.Equal(t, []string{"Leave requests need three days notice."}, tables.Snippets)
}

func TestLoaderRejectsInvalidOverrides(t *testing.T) {
	cases := map[string]string{
		"unknown role":   "restricted_intents:\n  superuser:\n    - payroll_query\n",
		"unknown intent": "restricted_intents:\n  employee:\n    - not_a_real_intent\n",
		"bad regex":      "redactions:\n  employee:\n    - name: broken\n      pattern: '['\n",
		"unknown record": "attributes:\n  bank_accounts:\n    admin:\n      - iban\n",
		"malformed yaml": "restricted_intents: [unclosed\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		l := NewLoader(path, testLogger())
		require.Error(t, l.Load(), name)
	}
}

func TestLoaderFiresReloadCallbacks(t *testing.T) {
	l := NewLoader("", testLogger())

	var got *Tables
	l.OnReload(func(tables *Tables) { got = tables })

	require.NoError(t, l.Load())
	require.Same(t, l.Tables(), got)
}
