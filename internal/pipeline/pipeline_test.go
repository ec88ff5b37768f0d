package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/gate"
	"github.com/stafflane/hr-copilot/internal/intent"
	"github.com/stafflane/hr-copilot/internal/policy"
	"github.com/stafflane/hr-copilot/internal/respond"
	"github.com/stafflane/hr-copilot/internal/store"
)

type spyBuilder struct {
	calls   int
	sctx    *domain.SecureContext
	err     error
	lastTag string
}

func (s *spyBuilder) Build(_ context.Context, _ domain.Identity, tag string, _ *domain.QueryPlan, _ *policy.Tables) (*domain.SecureContext, error) {
	s.calls++
	s.lastTag = tag
	if s.err != nil {
		return nil, s.err
	}
	return s.sctx, nil
}

type stubPlanner struct {
	plan  *domain.QueryPlan
	err   error
	calls int
}

func (s *stubPlanner) Plan(context.Context, string, domain.Identity, string) (*domain.QueryPlan, error) {
	s.calls++
	return s.plan, s.err
}

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (s *stubGenerator) Generate(context.Context, domain.Identity, string, *domain.SecureContext, *domain.QueryPlan, *policy.Tables) (string, error) {
	s.calls++
	return s.answer, s.err
}

type testEnv struct {
	pipe    *Pipeline
	builder *spyBuilder
	gen     *stubGenerator
	store   *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tables := policy.Defaults()
	logger := log.New(io.Discard, "", 0)
	g, err := gate.New(tables, logger)
	require.NoError(t, err)

	builder := &spyBuilder{sctx: &domain.SecureContext{
		Role:     domain.RoleEmployee,
		Employee: map[string]any{"employee_id": "E003", "name": "Ravi Kumar"},
		Leave:    []map[string]any{{"leave_type": "sick", "remaining": 6}},
	}}
	gen := &stubGenerator{answer: "You have 6 sick leave days remaining."}
	mem := store.NewMemoryStore()

	pipe := New(Deps{
		Tables:        func() *policy.Tables { return tables },
		Gate:          g,
		Builder:       builder,
		Planner:       &stubPlanner{plan: &domain.QueryPlan{Type: "lookup", Tables: []string{"leave_balances"}, Timeframe: "this_month", ResponseFormat: "summary", SecurityLevel: "self"}},
		Generator:     gen,
		Filter:        respond.NewFilter(),
		Conversations: mem,
		Audit:         mem,
		Logger:        logger,
		MaxMessageLen: 200,
	})
	return &testEnv{pipe: pipe, builder: builder, gen: gen, store: mem}
}

func employee() domain.Identity {
	return domain.Identity{UserID: "u-ravi", EmployeeID: "E003", Role: domain.RoleEmployee}
}

func TestProcessSelfServiceLeaveBalance(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.pipe.Process(context.Background(), Request{
		Identity:  employee(),
		Message:   "How many sick leaves do I have left?",
		SessionID: "s-1",
	})
	require.NoError(t, err)
	require.Equal(t, TypeAnswer, resp.Type)
	require.Equal(t, intent.LeaveBalance, resp.Intent)
	require.Equal(t, "s-1", resp.SessionID)
	require.Contains(t, resp.Message, "6 sick leave days")
	require.NotEmpty(t, resp.QuickActions)
	require.Equal(t, 1, env.builder.calls)

	turns, total, err := env.store.TurnsBySession(context.Background(), "u-ravi", "s-1", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, resp.Message, turns[0].Response)

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	require.Equal(t, "query", entries[0].Action)
	require.Empty(t, entries[0].SecurityViolations)
}

func TestProcessDeniedIntentNeverTouchesData(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.pipe.Process(context.Background(), Request{
		Identity: employee(),
		Message:  "What is John's salary in the company?",
	})
	require.NoError(t, err)
	require.Equal(t, TypeAccessDenied, resp.Type)
	require.Equal(t, DeniedMessage, resp.Message)
	require.Zero(t, env.builder.calls, "denied turn must not reach a fetcher")
	require.Zero(t, env.gen.calls, "denied turn must not reach the backend")

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	require.Equal(t, "query_denied", entries[0].Action)
	require.NotEmpty(t, entries[0].SecurityViolations)
}

func TestProcessManagerDeniedAdminAllowedPayroll(t *testing.T) {
	env := newTestEnv(t)

	manager := domain.Identity{UserID: "u-meera", EmployeeID: "E002", Role: domain.RoleManager}
	resp, err := env.pipe.Process(context.Background(), Request{Identity: manager, Message: "Show me the payroll summary"})
	require.NoError(t, err)
	require.Equal(t, TypeAccessDenied, resp.Type)

	admin := domain.Identity{UserID: "u-asha", EmployeeID: "E001", Role: domain.RoleAdmin}
	resp, err = env.pipe.Process(context.Background(), Request{Identity: admin, Message: "Show me the payroll summary"})
	require.NoError(t, err)
	require.Equal(t, TypeAnswer, resp.Type)
	require.Equal(t, 1, env.builder.calls)
}

func TestProcessValidationLogsNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "   "})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	_, err = env.pipe.Process(context.Background(), Request{Identity: employee(), Message: string(long)})
	require.ErrorAs(t, err, &verr)

	require.Empty(t, env.store.AuditEntries())
	sessions, err := env.store.SessionsByUser(context.Background(), "u-ravi", 10)
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestProcessGeneratesSessionID(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "show my leave balance"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
}

func TestProcessUpstreamFailureApologizesAndLogs(t *testing.T) {
	env := newTestEnv(t)
	env.gen.err = domain.ErrUpstream("response generation", errors.New("connection refused"))

	resp, err := env.pipe.Process(context.Background(), Request{
		Identity:  employee(),
		Message:   "show my attendance this week",
		SessionID: "s-2",
	})
	require.NoError(t, err)
	require.Equal(t, TypeError, resp.Type)
	require.Equal(t, respond.ApologyMessage, resp.Message)
	require.NotContains(t, resp.Message, "connection refused")

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	require.Equal(t, "upstream_failure", entries[0].Action)
	_, total, err := env.store.TurnsBySession(context.Background(), "u-ravi", "s-2", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total, "failed turn must still be logged")
}

func TestProcessEmptyContextYieldsNoData(t *testing.T) {
	env := newTestEnv(t)
	env.builder.sctx = &domain.SecureContext{Role: domain.RoleEmployee}

	resp, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "show my performance review"})
	require.NoError(t, err)
	require.Equal(t, TypeNoData, resp.Type)
	require.Equal(t, NoDataMessage, resp.Message)
	require.Zero(t, env.gen.calls)
}

func TestProcessPlannerNoPlanAsksForClarification(t *testing.T) {
	env := newTestEnv(t)
	planner := &stubPlanner{plan: nil}
	env.pipe.deps.Planner = planner

	resp, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "leave balance please"})
	require.NoError(t, err)
	require.Equal(t, TypeClarification, resp.Type)
	require.Equal(t, respond.ClarificationMessage, resp.Message)
	require.Equal(t, 1, planner.calls)
	require.Zero(t, env.builder.calls)
}

func TestProcessPlannerErrorDegradesToDefaults(t *testing.T) {
	env := newTestEnv(t)
	planner := &stubPlanner{err: domain.ErrUpstream("query planning", errors.New("timeout"))}
	env.pipe.deps.Planner = planner

	resp, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "What's my leave balance?"})
	require.NoError(t, err)
	require.Equal(t, TypeAnswer, resp.Type)
	require.Equal(t, intent.LeaveBalance, resp.Intent)
	require.Equal(t, 1, planner.calls, "planner failure must not skip the planning attempt")
	require.Equal(t, 1, env.builder.calls)
}

func TestProcessFetcherDenialIsDefenseInDepth(t *testing.T) {
	env := newTestEnv(t)
	env.builder.err = domain.ErrAccessDenied("employee E003 cannot view records for E004")

	resp, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "show my attendance this week"})
	require.NoError(t, err)
	require.Equal(t, TypeAccessDenied, resp.Type)

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].SecurityViolations, "fetcher_scope")
}

func TestProcessFilterRedactsGeneratedText(t *testing.T) {
	env := newTestEnv(t)
	env.gen.answer = "Your colleague earns $85,000 per year."

	resp, err := env.pipe.Process(context.Background(), Request{Identity: employee(), Message: "show my leave balance"})
	require.NoError(t, err)
	require.Equal(t, TypeAnswer, resp.Type)
	require.NotContains(t, resp.Message, "$85,000")
	require.Contains(t, resp.Message, policy.RedactedPlaceholder)
}
