// Package pipeline orchestrates one conversational turn:
// Received -> Classified -> {Denied | SecurityPassed} -> ContextBuilt ->
// {NoDataFound | Generated} -> Filtered -> Logged -> Completed. Denials
// and missing data short-circuit but still reach Logged; failures at any
// stage produce a user-safe message and a log entry, never an unlogged
// turn or a raw error to the transport.
package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/gate"
	"github.com/stafflane/hr-copilot/internal/intent"
	"github.com/stafflane/hr-copilot/internal/metrics"
	"github.com/stafflane/hr-copilot/internal/policy"
	"github.com/stafflane/hr-copilot/internal/respond"
	"github.com/stafflane/hr-copilot/internal/store"
)

// ResponseType tags the outcome of a turn. Every outcome returns a
// well-formed response object.
type ResponseType string

const (
	TypeAnswer        ResponseType = "answer"
	TypeAccessDenied  ResponseType = "access_denied"
	TypeNoData        ResponseType = "no_data"
	TypeClarification ResponseType = "clarification"
	TypeError         ResponseType = "error"
)

// DeniedMessage is the fixed reply for a security denial.
const DeniedMessage = "I can't help with that. Your role doesn't permit access to this information."

// NoDataMessage is the fixed reply when the requested records are absent
// rather than forbidden.
const NoDataMessage = "I couldn't find any records matching that request."

// Request is one turn's input, with identity attached by the transport's
// auth layer. The session id is an opaque correlation id, never an
// authorization boundary.
type Request struct {
	Identity  domain.Identity
	Message   string
	SessionID string
	ClientIP  string
	UserAgent string
}

// Response is one turn's outcome.
type Response struct {
	Type           ResponseType         `json:"type"`
	Message        string               `json:"message"`
	Intent         string               `json:"intent"`
	QuickActions   []policy.QuickAction `json:"quick_actions"`
	SessionID      string               `json:"session_id"`
	ResponseTimeMs int64                `json:"response_time_ms"`
}

// SecurityGate is the pre-data-access check.
type SecurityGate interface {
	Check(role domain.Role, tag, rawQuery string) gate.Decision
}

// ContextBuilder assembles the role-scoped data bundle.
type ContextBuilder interface {
	Build(ctx context.Context, requester domain.Identity, tag string, plan *domain.QueryPlan, tables *policy.Tables) (*domain.SecureContext, error)
}

// QueryPlanner produces a structured plan for self-service lookups, or
// nil when the backend's output is unusable.
type QueryPlanner interface {
	Plan(ctx context.Context, query string, requester domain.Identity, hint string) (*domain.QueryPlan, error)
}

// ResponseGenerator obtains the natural-language answer.
type ResponseGenerator interface {
	Generate(ctx context.Context, requester domain.Identity, query string, sctx *domain.SecureContext, plan *domain.QueryPlan, tables *policy.Tables) (string, error)
}

// ResponseFilter scrubs generated text for the role.
type ResponseFilter interface {
	Apply(role domain.Role, text string, tables *policy.Tables) (string, []string)
}

// Deps wires the pipeline's collaborators. Every field is required
// except Planner, which may be nil to disable self-service planning.
type Deps struct {
	Tables        func() *policy.Tables
	Gate          SecurityGate
	Builder       ContextBuilder
	Planner       QueryPlanner
	Generator     ResponseGenerator
	Filter        ResponseFilter
	Conversations store.ConversationStore
	Audit         store.AuditStore
	Logger        *log.Logger
	MaxMessageLen int
}

// Pipeline processes turns. It holds no per-turn state; concurrent turns
// share nothing but the append-only stores.
type Pipeline struct {
	deps Deps
	now  func() time.Time
}

// New creates a pipeline.
func New(deps Deps) *Pipeline {
	if deps.MaxMessageLen <= 0 {
		deps.MaxMessageLen = 2000
	}
	return &Pipeline{deps: deps, now: time.Now}
}

// selfServiceIntents route through the query planner.
var selfServiceIntents = map[string]bool{
	intent.LeaveBalance:     true,
	intent.LeaveApplication: true,
	intent.AttendanceQuery:  true,
}

// domainsByIntent names the data domains a turn touches, for the audit
// trail's access-attempt list.
var domainsByIntent = map[string][]string{
	intent.LeaveBalance:             {"leave"},
	intent.LeaveApplication:         {"leave", "policy"},
	intent.AttendanceQuery:          {"attendance"},
	intent.PayrollQuery:             {"employee"},
	intent.SalaryComparison:         {"employee"},
	intent.PerformanceQuery:         {"performance"},
	intent.OtherEmployeePerformance: {"performance"},
	intent.TeamReports:              {"team"},
	intent.PolicyQuery:              {"policy"},
	intent.GeneralQuery:             {"employee", "policy"},
}

// Process runs one turn end to end. A ValidationError return means no
// pipeline stage ran and nothing was logged; every other outcome is a
// well-formed Response that has been logged.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Response, error) {
	// Received
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.ErrValidation("message must not be empty")
	}
	if len(req.Message) > p.deps.MaxMessageLen {
		return nil, domain.ErrValidation("message exceeds %d characters", p.deps.MaxMessageLen)
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	started := p.now()
	metrics.TurnsTotal.Inc()
	tables := p.deps.Tables()

	// Classified
	tag, confidence := intent.Classify(message)
	metrics.RecordIntent(tag)

	turn := turnState{
		req:        req,
		message:    message,
		tag:        tag,
		confidence: confidence,
		started:    started,
	}

	// Denied | SecurityPassed
	decision := p.deps.Gate.Check(req.Identity.Role, tag, message)
	if !decision.Allowed {
		return p.finish(ctx, turn, TypeAccessDenied, DeniedMessage, tables, auditInfo{
			action:     "query_denied",
			violations: []string{decision.Violation},
		})
	}

	// Optional planning for self-service lookups.
	var plan *domain.QueryPlan
	if p.deps.Planner != nil && selfServiceIntents[tag] {
		var err error
		plan, err = p.deps.Planner.Plan(ctx, message, req.Identity, tag)
		if err != nil {
			// Planning is an optimization; a backend failure here
			// degrades to the default plan rather than failing the turn.
			p.deps.Logger.Printf("[pipeline] planner failed, using defaults: %v", err)
			plan = nil
			turn.plannerFailed = true
		} else if plan == nil {
			return p.finish(ctx, turn, TypeClarification, respond.ClarificationMessage, tables, auditInfo{
				action: "query_clarification",
			})
		}
	}

	// ContextBuilt
	sctx, err := p.deps.Builder.Build(ctx, req.Identity, tag, plan, tables)
	if err != nil {
		return p.finishError(ctx, turn, tables, err)
	}
	if sctx.Empty() {
		return p.finish(ctx, turn, TypeNoData, NoDataMessage, tables, auditInfo{
			action:   "query_no_data",
			attempts: domainsByIntent[tag],
		})
	}

	// Generated
	answer, err := p.deps.Generator.Generate(ctx, req.Identity, message, sctx, plan, tables)
	if err != nil {
		return p.finishError(ctx, turn, tables, err)
	}
	// A cancelled caller gets nothing; a late backend result is
	// discarded, not applied.
	if ctx.Err() != nil {
		return p.finishError(ctx, turn, tables, domain.ErrUpstream("response generation", ctx.Err()))
	}

	// Filtered
	filtered, fired := p.deps.Filter.Apply(req.Identity.Role, answer, tables)
	metrics.RecordRedaction(fired)

	return p.finish(ctx, turn, TypeAnswer, filtered, tables, auditInfo{
		action:   "query",
		attempts: domainsByIntent[tag],
	})
}

type turnState struct {
	req           Request
	message       string
	tag           string
	confidence    float64
	started       time.Time
	plannerFailed bool
}

type auditInfo struct {
	action     string
	attempts   []string
	violations []string
}

// finishError converts an error into a user-safe terminal outcome.
func (p *Pipeline) finishError(ctx context.Context, turn turnState, tables *policy.Tables, err error) (*Response, error) {
	var denied *domain.AccessDeniedError
	var notFound *domain.NotFoundError

	switch {
	case errors.As(err, &denied):
		// Defense-in-depth denial from a fetcher; the gate should have
		// caught it first.
		p.deps.Logger.Printf("[pipeline] fetcher denial user=%s intent=%s: %v", turn.req.Identity.UserID, turn.tag, err)
		return p.finish(ctx, turn, TypeAccessDenied, DeniedMessage, tables, auditInfo{
			action:     "query_denied",
			violations: []string{"fetcher_scope"},
		})
	case errors.As(err, &notFound):
		return p.finish(ctx, turn, TypeNoData, NoDataMessage, tables, auditInfo{
			action:   "query_no_data",
			attempts: domainsByIntent[turn.tag],
		})
	default:
		// Upstream failure: apologize, log the cause server-side only.
		p.deps.Logger.Printf("[pipeline] upstream failure user=%s intent=%s: %v", turn.req.Identity.UserID, turn.tag, err)
		return p.finish(ctx, turn, TypeError, respond.ApologyMessage, tables, auditInfo{
			action:   "upstream_failure",
			attempts: domainsByIntent[turn.tag],
		})
	}
}

// finish logs the turn and assembles the response. Logging failures are
// reported but never turn a completed outcome into an error.
func (p *Pipeline) finish(ctx context.Context, turn turnState, rtype ResponseType, message string, tables *policy.Tables, info auditInfo) (*Response, error) {
	elapsed := p.now().Sub(turn.started).Milliseconds()
	metrics.RecordOutcome(string(rtype))
	metrics.TurnLatency.Observe(float64(p.now().Sub(turn.started)) / float64(time.Second))

	// Logged: conversation turn first, then the audit entry. Use a
	// detached context so a cancelled caller cannot leave the turn
	// unlogged.
	logCtx := context.WithoutCancel(ctx)

	convTurn := domain.ConversationTurn{
		ID:             uuid.New().String(),
		UserID:         turn.req.Identity.UserID,
		SessionID:      turn.req.SessionID,
		Query:          turn.message,
		Response:       message,
		Intent:         turn.tag,
		Confidence:     turn.confidence,
		ResponseTimeMs: elapsed,
		CreatedAt:      p.now().UTC(),
	}
	if err := p.deps.Conversations.AppendTurn(logCtx, convTurn); err != nil {
		p.deps.Logger.Printf("[pipeline] failed to append conversation turn: %v", err)
	}

	entry := domain.AuditLogEntry{
		ID:                 uuid.New().String(),
		UserID:             turn.req.Identity.UserID,
		Role:               turn.req.Identity.Role,
		Action:             info.action,
		Query:              turn.message,
		Response:           message,
		Intent:             turn.tag,
		AccessAttempts:     info.attempts,
		SecurityViolations: info.violations,
		ClientIP:           turn.req.ClientIP,
		UserAgent:          turn.req.UserAgent,
		Timestamp:          p.now().UTC(),
	}
	if err := p.deps.Audit.AppendAudit(logCtx, entry); err != nil {
		p.deps.Logger.Printf("[pipeline] failed to append audit entry: %v", err)
	}

	// Completed
	return &Response{
		Type:           rtype,
		Message:        message,
		Intent:         turn.tag,
		QuickActions:   tables.QuickActionsFor(turn.tag, turn.req.Identity.Role),
		SessionID:      turn.req.SessionID,
		ResponseTimeMs: elapsed,
	}, nil
}
