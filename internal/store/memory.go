package store

import (
	"context"
	"sort"
	"sync"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/sanitize"
)

// MemoryStore is an in-memory ConversationStore/AuditStore/StatsStore
// used by tests.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []domain.ConversationTurn
	audit []domain.AuditLogEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AppendTurn(_ context.Context, turn domain.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

func (m *MemoryStore) TurnsBySession(_ context.Context, userID, sessionID string, limit, offset int) ([]domain.ConversationTurn, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []domain.ConversationTurn
	for _, turn := range m.turns {
		if turn.UserID == userID && turn.SessionID == sessionID {
			matched = append(matched, turn)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit <= 0 {
		limit = 50
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) SessionsByUser(_ context.Context, userID string, limit int) ([]domain.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := make(map[string]*domain.SessionInfo)
	for _, turn := range m.turns {
		if turn.UserID != userID {
			continue
		}
		info, ok := byID[turn.SessionID]
		if !ok {
			info = &domain.SessionInfo{
				SessionID: turn.SessionID,
				FirstSeen: turn.CreatedAt,
				LastSeen:  turn.CreatedAt,
			}
			byID[turn.SessionID] = info
		}
		info.TurnCount++
		if turn.CreatedAt.Before(info.FirstSeen) {
			info.FirstSeen = turn.CreatedAt
		}
		if turn.CreatedAt.After(info.LastSeen) {
			info.LastSeen = turn.CreatedAt
		}
	}

	out := make([]domain.SessionInfo, 0, len(byID))
	for _, info := range byID {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, userID, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []domain.ConversationTurn
	var deleted int64
	for _, turn := range m.turns {
		if turn.UserID == userID && turn.SessionID == sessionID {
			deleted++
			continue
		}
		kept = append(kept, turn)
	}
	m.turns = kept
	return deleted, nil
}

func (m *MemoryStore) AppendAudit(_ context.Context, entry domain.AuditLogEntry) error {
	entry.Query = sanitize.Scrub(entry.Query)
	entry.Response = sanitize.Scrub(entry.Response)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

// AuditEntries returns a copy of the audit trail for assertions.
func (m *MemoryStore) AuditEntries() []domain.AuditLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.AuditLogEntry(nil), m.audit...)
}

func (m *MemoryStore) Stats(_ context.Context) (domain.UsageStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := domain.UsageStats{TurnsByIntent: make(map[string]int64)}
	sessions := make(map[string]bool)
	users := make(map[string]bool)
	for _, turn := range m.turns {
		stats.TotalTurns++
		sessions[turn.UserID+"/"+turn.SessionID] = true
		users[turn.UserID] = true
		stats.TurnsByIntent[turn.Intent]++
	}
	stats.TotalSessions = int64(len(sessions))
	stats.TotalUsers = int64(len(users))
	for _, entry := range m.audit {
		if len(entry.SecurityViolations) > 0 {
			stats.SecurityDenies++
		}
	}
	return stats, nil
}
