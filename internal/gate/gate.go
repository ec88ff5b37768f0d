// Package gate is the pre-data-access security chokepoint. Every query
// passes through Check before any fetcher runs; there is no other entry
// point into the data-bearing half of the pipeline.
package gate

import (
	"log"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/policy"
)

// Violation tags recorded in the audit log on denial.
const (
	ViolationIntentRestricted = "intent_restriction"
	ViolationCrossIdentity    = "cross_identity"
)

// Decision is the outcome of the gate check.
type Decision struct {
	Allowed   bool
	Reason    string
	Violation string
	PolicyID  string
}

// Gate runs two independent checks, both of which must pass: the
// Cedar-compiled role/intent restriction table, and the cross-identity
// text heuristics.
type Gate struct {
	engine   *Engine
	detector *CrossIdentityDetector
	logger   *log.Logger
}

// New builds a gate from the active policy tables.
func New(tables *policy.Tables, logger *log.Logger) (*Gate, error) {
	engine, err := NewEngine(tables, logger)
	if err != nil {
		return nil, err
	}
	return &Gate{
		engine:   engine,
		detector: NewCrossIdentityDetector(),
		logger:   logger,
	}, nil
}

// Rebuild recompiles the restriction policies from a new tables
// snapshot. Wired to the policy loader's reload callback.
func (g *Gate) Rebuild(tables *policy.Tables) error {
	return g.engine.Rebuild(tables)
}

// PolicyVersion exposes the compiled policy hash for diagnostics.
func (g *Gate) PolicyVersion() string {
	return g.engine.PolicyVersion()
}

// Check evaluates intent restriction then the cross-identity heuristic.
// It never touches data; a denial short-circuits the pipeline before any
// fetcher is invoked.
func (g *Gate) Check(role domain.Role, tag, rawQuery string) Decision {
	allowed, policyID := g.engine.Authorize(role, tag)
	if !allowed {
		g.logger.Printf("[gate] deny role=%s intent=%s policy=%s", role, tag, policyID)
		return Decision{
			Allowed:   false,
			Reason:    "role cannot access intent",
			Violation: ViolationIntentRestricted,
			PolicyID:  policyID,
		}
	}

	// Admins may reference other identities; everyone else trips the
	// heuristic.
	if role != domain.RoleAdmin {
		if hit, pattern := g.detector.Detect(rawQuery); hit {
			g.logger.Printf("[gate] deny role=%s intent=%s pattern=%s", role, tag, pattern)
			return Decision{
				Allowed:   false,
				Reason:    "query references another employee's records",
				Violation: ViolationCrossIdentity,
				PolicyID:  policyID,
			}
		}
	}

	return Decision{Allowed: true, PolicyID: policyID}
}
