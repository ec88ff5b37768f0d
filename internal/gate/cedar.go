package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cedar-policy/cedar-go"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/policy"
)

// Engine evaluates the role/intent restriction table through Cedar. The
// table is compiled into Cedar policy text so a policy change stays a
// data edit; the compiled set is swapped atomically on reload.
type Engine struct {
	policySet     atomic.Pointer[cedar.PolicySet]
	policyVersion atomic.Pointer[string]
	logger        *log.Logger
}

// NewEngine compiles the restriction table and returns a ready engine.
func NewEngine(tables *policy.Tables, logger *log.Logger) (*Engine, error) {
	e := &Engine{logger: logger}
	if err := e.Rebuild(tables); err != nil {
		return nil, err
	}
	return e, nil
}

// Rebuild recompiles the restriction table and swaps the active policy
// set. Safe to call from the policy loader's reload callback.
func (e *Engine) Rebuild(tables *policy.Tables) error {
	text := CompileRestrictions(tables)

	hash := sha256.Sum256([]byte(text))
	version := hex.EncodeToString(hash[:])[:12]

	ps := cedar.NewPolicySet()
	chunks := strings.Split(text, ";")
	for i, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var p cedar.Policy
		if err := p.UnmarshalCedar([]byte(chunk + ";")); err != nil {
			return fmt.Errorf("unmarshal cedar policy part %d: %w", i, err)
		}
		ps.Add(cedar.PolicyID(fmt.Sprintf("policy%d", i)), &p)
	}

	e.policySet.Store(ps)
	e.policyVersion.Store(&version)
	e.logger.Printf("[gate] compiled %d cedar policies (version %s)", len(chunks)-1, version)
	return nil
}

// PolicyVersion returns the hash of the active compiled policy text.
func (e *Engine) PolicyVersion() string {
	v := e.policyVersion.Load()
	if v == nil {
		return ""
	}
	return *v
}

// Authorize evaluates (role, intent) against the compiled restriction
// policies. A missing policy set fails closed.
func (e *Engine) Authorize(role domain.Role, tag string) (bool, string) {
	ps := e.policySet.Load()
	if ps == nil {
		return false, "policy engine not initialized"
	}

	entities := cedar.EntityMap{
		cedar.NewEntityUID("HRData", "default"): cedar.Entity{
			UID: cedar.NewEntityUID("HRData", "default"),
		},
	}

	req := cedar.Request{
		Principal: cedar.NewEntityUID("User", cedar.String(string(role))),
		Action:    cedar.NewEntityUID("Action", "ask"),
		Resource:  cedar.NewEntityUID("HRData", "default"),
		Context: cedar.NewRecord(cedar.RecordMap{
			"role":   cedar.String(string(role)),
			"intent": cedar.String(tag),
		}),
	}

	ok, diagnostics := cedar.Authorize(ps, entities, req)

	policyID := ""
	if len(diagnostics.Reasons) > 0 {
		policyID = string(diagnostics.Reasons[0].PolicyID)
	}
	if ok {
		return true, policyID
	}
	return false, policyID
}

// CompileRestrictions renders the restriction table as Cedar policy
// text: a default permit for the ask action, then one forbid per
// (role, intent) restriction. Roles are emitted in a stable order so
// the policy version hash only changes when the table does.
func CompileRestrictions(tables *policy.Tables) string {
	var b strings.Builder

	b.WriteString("// Generated from the role policy tables.\n")
	b.WriteString("permit (principal, action == Action::\"ask\", resource);\n\n")

	roles := make([]string, 0, len(tables.RestrictedIntents))
	for role := range tables.RestrictedIntents {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	for _, role := range roles {
		for _, tag := range tables.RestrictedIntents[domain.Role(role)] {
			fmt.Fprintf(&b,
				"forbid (principal, action == Action::\"ask\", resource)\nwhen { context.role == %q && context.intent == %q };\n\n",
				role, tag)
		}
	}
	return b.String()
}
