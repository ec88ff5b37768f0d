// Package planner turns an unpredictable self-service phrasing into a
// structured lookup plan by asking the generative backend to emit a plan
// object against a closed schema. The backend's nondeterminism is
// isolated here: a malformed reply yields a nil plan, never an error the
// pipeline has to treat as a failure, so the rest of the pipeline stays
// deterministic.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/provider"
)

// schemaPrompt describes the closed record schema the plan may reference.
const schemaPrompt = `You are a query planner for an HR records system.
The schema has exactly these tables:
- attendance(employee_id, date, status, check_in, check_out, work_hours)
- leave_balances(employee_id, leave_type, total, used)
- performance_reviews(employee_id, review_date, rating, feedback, goals)
- employees(employee_id, name, email, department, designation, joining_date)

Given the user's question, reply with ONLY a JSON object, no prose:
{"type": "<lookup|summary>", "tables": ["<table>", ...],
 "timeframe": "<today|this_week|this_month|all>",
 "response_format": "<summary|detail>", "security_level": "self"}`

// Planner asks the backend for a structured plan over the requester's
// own records. The caller always passes the requester's own identity;
// no user-supplied target id ever reaches this path.
type Planner struct {
	backend provider.Provider
	logger  *log.Logger
}

// New creates a planner over a generative backend.
func New(backend provider.Provider, logger *log.Logger) *Planner {
	return &Planner{backend: backend, logger: logger}
}

// Plan produces a QueryPlan for the requester's own records, or nil when
// the backend's reply cannot be parsed. Backend transport failures are
// returned as errors so the caller can fall back; parse failures are
// not errors.
func (p *Planner) Plan(ctx context.Context, query string, requester domain.Identity, hint string) (*domain.QueryPlan, error) {
	prompt := fmt.Sprintf("%s\n\nRequester role: %s\nData requirement hint: %s\nQuestion: %s",
		schemaPrompt, requester.Role, hint, query)

	raw, err := p.backend.Generate(ctx, prompt)
	if err != nil {
		return nil, domain.ErrUpstream("query planning", err)
	}

	plan := parsePlan(raw)
	if plan == nil {
		p.logger.Printf("[planner] unparseable plan output, falling back: %.80q", raw)
		return nil, nil
	}
	// The planner only ever serves the requester's own records.
	plan.SecurityLevel = "self"
	return plan, nil
}

// parsePlan extracts the first JSON object from the reply and validates
// its fields against the closed vocabulary. Anything off-schema yields
// nil.
func parsePlan(raw string) *domain.QueryPlan {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	var plan domain.QueryPlan
	if err := json.Unmarshal([]byte(raw[start:end+1]), &plan); err != nil {
		return nil
	}

	switch plan.Type {
	case "lookup", "summary":
	default:
		return nil
	}
	switch plan.Timeframe {
	case "today", "this_week", "this_month", "all":
	case "":
		plan.Timeframe = "this_month"
	default:
		return nil
	}
	switch plan.ResponseFormat {
	case "summary", "detail":
	case "":
		plan.ResponseFormat = "summary"
	default:
		return nil
	}

	known := map[string]bool{
		"attendance": true, "leave_balances": true,
		"performance_reviews": true, "employees": true,
	}
	for _, table := range plan.Tables {
		if !known[table] {
			return nil
		}
	}
	return &plan
}
