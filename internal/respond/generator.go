// Package respond turns a SecureContext into a user-facing answer: the
// generator builds the role-specific prompt and calls the backend, and
// the filter scrubs the reply against the role's redaction patterns.
package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/policy"
	"github.com/stafflane/hr-copilot/internal/provider"
)

// ApologyMessage is the only text a user sees when the backend fails.
// The underlying error goes to the server log, never to the client.
const ApologyMessage = "Sorry, I couldn't process that request right now. Please try again in a moment."

// ClarificationMessage is returned when a self-service query could not
// be planned.
const ClarificationMessage = "I wasn't sure which of your records you're asking about. Could you rephrase, for example \"show my attendance this week\"?"

// instructionBlock constrains the backend to the supplied context.
const instructionBlock = `Rules:
- Answer only from the CONTEXT DATA above. Do not invent records, numbers, or people.
- Never mention salaries, amounts, or employees that do not appear in the context.
- If the context does not contain the answer, say you don't have that information.
- Keep the answer short and direct.`

// Generator assembles the prompt for one turn and calls the backend.
type Generator struct {
	backend provider.Provider
	logger  *log.Logger
}

// NewGenerator creates a response generator over a backend.
func NewGenerator(backend provider.Provider, logger *log.Logger) *Generator {
	return &Generator{backend: backend, logger: logger}
}

// Generate renders the non-empty SecureContext sections under the role's
// system prompt and returns the backend's reply. Backend failures come
// back as an UpstreamError for the pipeline to convert.
func (g *Generator) Generate(ctx context.Context, requester domain.Identity, query string, sctx *domain.SecureContext, plan *domain.QueryPlan, tables *policy.Tables) (string, error) {
	prompt := g.buildPrompt(requester, query, sctx, plan, tables)

	reply, err := g.backend.Generate(ctx, prompt)
	if err != nil {
		return "", domain.ErrUpstream("response generation", err)
	}
	return strings.TrimSpace(reply), nil
}

func (g *Generator) buildPrompt(requester domain.Identity, query string, sctx *domain.SecureContext, plan *domain.QueryPlan, tables *policy.Tables) string {
	var b strings.Builder

	b.WriteString(tables.SystemPrompts[requester.Role])
	b.WriteString("\n\nCONTEXT DATA:\n")

	writeSection(&b, "employee_profile", sctx.Employee)
	writeSection(&b, "team", sctx.Team)
	writeSection(&b, "attendance", sctx.Attendance)
	writeSection(&b, "leave_balances", sctx.Leave)
	writeSection(&b, "performance", sctx.Performance)
	if len(sctx.PolicySnippets) > 0 {
		b.WriteString("company_policies:\n")
		for _, snippet := range sctx.PolicySnippets {
			b.WriteString("- ")
			b.WriteString(snippet)
			b.WriteString("\n")
		}
	}

	if plan != nil && plan.ResponseFormat != "" {
		fmt.Fprintf(&b, "\nPreferred response format: %s\n", plan.ResponseFormat)
	}

	b.WriteString("\n")
	b.WriteString(instructionBlock)
	b.WriteString("\n\nUser question: ")
	b.WriteString(query)
	return b.String()
}

// writeSection renders one context section as compact JSON. Empty
// sections are omitted entirely so the backend never sees the shape of
// data the role was not given.
func writeSection(b *strings.Builder, name string, section any) {
	switch v := section.(type) {
	case map[string]any:
		if len(v) == 0 {
			return
		}
	case []map[string]any:
		if len(v) == 0 {
			return
		}
	default:
		return
	}
	encoded, err := json.Marshal(section)
	if err != nil {
		return
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.Write(encoded)
	b.WriteString("\n")
}
