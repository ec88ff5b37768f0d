package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stafflane/hr-copilot/internal/domain"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTurn(userID, sessionID, query string, at time.Time) domain.ConversationTurn {
	return domain.ConversationTurn{
		ID:             uuid.New().String(),
		UserID:         userID,
		SessionID:      sessionID,
		Query:          query,
		Response:       "answer to: " + query,
		Intent:         "general_query",
		Confidence:     0.4,
		ResponseTimeMs: 120,
		CreatedAt:      at,
	}
}

func TestTurnsBySessionPreservesCreationOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		turn := sampleTurn("u-1", "s-1", fmt.Sprintf("question %d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.AppendTurn(ctx, turn))
	}

	turns, total, err := s.TurnsBySession(ctx, "u-1", "s-1", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, turns, 5)
	for i, turn := range turns {
		require.Equal(t, fmt.Sprintf("question %d", i), turn.Query)
	}
}

func TestTurnsBySessionPagination(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 7; i++ {
		require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-1", fmt.Sprintf("q%d", i), base.Add(time.Duration(i)*time.Second))))
	}

	turns, total, err := s.TurnsBySession(ctx, "u-1", "s-1", 3, 3)
	require.NoError(t, err)
	require.EqualValues(t, 7, total)
	require.Len(t, turns, 3)
	require.Equal(t, "q3", turns[0].Query)
}

func TestTurnsBySessionScopedToUser(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-1", "mine", time.Now().UTC())))

	turns, total, err := s.TurnsBySession(ctx, "u-2", "s-1", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, turns)
}

func TestSessionsByUserOrderedByRecency(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-old", "first", base)))
	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-new", "second", base.Add(time.Minute))))
	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-old", "third", base.Add(2*time.Minute))))

	sessions, err := s.SessionsByUser(ctx, "u-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "s-old", sessions[0].SessionID, "latest activity sorts first")
	require.EqualValues(t, 2, sessions[0].TurnCount)
}

func TestDeleteSessionReturnsRemovedCount(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-1", "a", time.Now().UTC())))
	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-1", "b", time.Now().UTC())))
	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-2", "s-1", "other user", time.Now().UTC())))

	deleted, err := s.DeleteSession(ctx, "u-1", "s-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	// The other user's turns in the same session id survive.
	_, total, err := s.TurnsBySession(ctx, "u-2", "s-1", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	deleted, err = s.DeleteSession(ctx, "u-1", "s-1")
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestAppendAuditSanitizesBeforePersisting(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	entry := domain.AuditLogEntry{
		ID:        uuid.New().String(),
		UserID:    "u-1",
		Role:      domain.RoleEmployee,
		Action:    "query",
		Query:     "my password: hunter2 and card 4111-1111-1111-1111",
		Response:  "the amount was $85,000",
		Intent:    "general_query",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, s.AppendAudit(ctx, entry))

	var query, response string
	err := s.db.QueryRow(`SELECT query, response FROM audit_log WHERE id = ?`, entry.ID).Scan(&query, &response)
	require.NoError(t, err)
	require.NotContains(t, query, "hunter2")
	require.NotContains(t, query, "4111-1111-1111-1111")
	require.Contains(t, query, "[CREDENTIAL]")
	require.Contains(t, query, "[CARD]")
	require.NotContains(t, response, "$85,000")
	require.Contains(t, response, "[AMOUNT]")
}

func TestStats(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-1", "a", base)))
	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-1", "s-2", "b", base)))
	require.NoError(t, s.AppendTurn(ctx, sampleTurn("u-2", "s-3", "c", base)))

	require.NoError(t, s.AppendAudit(ctx, domain.AuditLogEntry{
		ID: uuid.New().String(), UserID: "u-1", Role: domain.RoleEmployee,
		Action: "query_denied", Query: "q", Response: "r", Intent: "payroll_query",
		SecurityViolations: []string{"intent_restriction"}, Timestamp: base,
	}))
	require.NoError(t, s.AppendAudit(ctx, domain.AuditLogEntry{
		ID: uuid.New().String(), UserID: "u-2", Role: domain.RoleEmployee,
		Action: "query", Query: "q", Response: "r", Intent: "general_query",
		Timestamp: base,
	}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalTurns)
	require.EqualValues(t, 3, stats.TotalSessions)
	require.EqualValues(t, 2, stats.TotalUsers)
	require.EqualValues(t, 3, stats.TurnsByIntent["general_query"])
	require.EqualValues(t, 1, stats.SecurityDenies)
}
