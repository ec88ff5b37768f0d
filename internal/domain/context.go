package domain

// SecureContext is the role-filtered data bundle assembled for a single
// query. It is built fresh per request, consumed by the response
// generator, and discarded. It must never contain an attribute outside
// the requester role's attribute policy, and never another identity's
// records unless the role's scoping allows it.
type SecureContext struct {
	Role           Role
	Employee       map[string]any
	Team           []map[string]any
	Attendance     []map[string]any
	Leave          []map[string]any
	Performance    []map[string]any
	PolicySnippets []string
}

// Empty reports whether the builder found no data at all for the intent.
func (c *SecureContext) Empty() bool {
	return c.Employee == nil &&
		len(c.Team) == 0 &&
		len(c.Attendance) == 0 &&
		len(c.Leave) == 0 &&
		len(c.Performance) == 0 &&
		len(c.PolicySnippets) == 0
}

// QueryPlan is the structured lookup plan produced by the planner for
// self-service queries. Consumed once, never persisted.
type QueryPlan struct {
	Type           string   `json:"type"`
	Tables         []string `json:"tables"`
	Timeframe      string   `json:"timeframe"`       // "today", "this_week", "this_month", "all"
	ResponseFormat string   `json:"response_format"` // "summary", "detail"
	SecurityLevel  string   `json:"security_level"`
}
