package domain

import "time"

// ConversationTurn is one query/response exchange. Append-only, owned by
// the user, never mutated after creation.
type ConversationTurn struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	Query          string    `json:"query"`
	Response       string    `json:"response"`
	Intent         string    `json:"intent"`
	Confidence     float64   `json:"confidence"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuditLogEntry is the durable security record written for every turn,
// including denials. Query and response text are sanitized before they
// reach a store.
type AuditLogEntry struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Role               Role      `json:"role"`
	Action             string    `json:"action"`
	Query              string    `json:"query"`
	Response           string    `json:"response"`
	Intent             string    `json:"intent"`
	AccessAttempts     []string  `json:"access_attempts,omitempty"`
	SecurityViolations []string  `json:"security_violations,omitempty"`
	ClientIP           string    `json:"client_ip,omitempty"`
	UserAgent          string    `json:"user_agent,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// SessionInfo summarizes one conversation session for listing.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	TurnCount int       `json:"turn_count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// UsageStats is the admin-only aggregate view over the turn store.
type UsageStats struct {
	TotalTurns     int64            `json:"total_turns"`
	TotalSessions  int64            `json:"total_sessions"`
	TotalUsers     int64            `json:"total_users"`
	TurnsByIntent  map[string]int64 `json:"turns_by_intent"`
	SecurityDenies int64            `json:"security_denials"`
}
