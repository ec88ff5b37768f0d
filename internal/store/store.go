// Package store persists the two entities that outlive a request: the
// conversation log and the audit log. Both are append-only; writes rely
// on the database's atomic insert, never read-modify-write, so
// concurrent turns need no client-side locking.
package store

import (
	"context"

	"github.com/stafflane/hr-copilot/internal/domain"
)

// ConversationStore holds the per-user turn history.
type ConversationStore interface {
	// AppendTurn records one completed turn.
	AppendTurn(ctx context.Context, turn domain.ConversationTurn) error

	// TurnsBySession returns the requester's turns for one session in
	// creation order, plus the total count before limit/offset.
	TurnsBySession(ctx context.Context, userID, sessionID string, limit, offset int) ([]domain.ConversationTurn, int64, error)

	// SessionsByUser lists the requester's sessions, most recent first.
	SessionsByUser(ctx context.Context, userID string, limit int) ([]domain.SessionInfo, error)

	// DeleteSession removes the requester's turns for one session and
	// returns how many were deleted.
	DeleteSession(ctx context.Context, userID, sessionID string) (int64, error)
}

// AuditStore holds the security audit trail. Implementations sanitize
// query/response text themselves before persisting; callers cannot
// bypass it.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry domain.AuditLogEntry) error
}

// StatsStore serves the admin-only aggregate counters.
type StatsStore interface {
	Stats(ctx context.Context) (domain.UsageStats, error)
}
