package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/sanitize"
)

const timeLayout = time.RFC3339Nano

// SQLiteStore implements ConversationStore, AuditStore, and StatsStore
// over one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the conversation database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open conversation db: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate conversation db: %w", err)
	}
	return s, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			session_id       TEXT NOT NULL,
			query            TEXT NOT NULL,
			response         TEXT NOT NULL,
			intent           TEXT NOT NULL,
			confidence       REAL NOT NULL DEFAULT 0,
			response_time_ms INTEGER NOT NULL DEFAULT 0,
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_user_session ON conversations(user_id, session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id                  TEXT PRIMARY KEY,
			user_id             TEXT NOT NULL,
			role                TEXT NOT NULL,
			action              TEXT NOT NULL,
			query               TEXT NOT NULL,
			response            TEXT NOT NULL,
			intent              TEXT NOT NULL,
			access_attempts     TEXT NOT NULL DEFAULT '[]',
			security_violations TEXT NOT NULL DEFAULT '[]',
			client_ip           TEXT NOT NULL DEFAULT '',
			user_agent          TEXT NOT NULL DEFAULT '',
			timestamp           TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_log(user_id, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, turn domain.ConversationTurn) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO conversations(id, user_id, session_id, query, response, intent, confidence, response_time_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.UserID, turn.SessionID, turn.Query, turn.Response,
		turn.Intent, turn.Confidence, turn.ResponseTimeMs,
		turn.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TurnsBySession(ctx context.Context, userID, sessionID string, limit, offset int) ([]domain.ConversationTurn, int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM conversations WHERE user_id = ? AND session_id = ?`,
		userID, sessionID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count turns: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, session_id, query, response, intent, confidence, response_time_ms, created_at
FROM conversations WHERE user_id = ? AND session_id = ?
ORDER BY created_at, rowid LIMIT ? OFFSET ?`,
		userID, sessionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		var created string
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.SessionID, &turn.Query,
			&turn.Response, &turn.Intent, &turn.Confidence, &turn.ResponseTimeMs, &created); err != nil {
			return nil, 0, fmt.Errorf("scan turn: %w", err)
		}
		turn.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, turn)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) SessionsByUser(ctx context.Context, userID string, limit int) ([]domain.SessionInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
FROM conversations WHERE user_id = ?
GROUP BY session_id ORDER BY MAX(created_at) DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionInfo
	for rows.Next() {
		var info domain.SessionInfo
		var first, last string
		if err := rows.Scan(&info.SessionID, &info.TurnCount, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.FirstSeen, _ = time.Parse(timeLayout, first)
		info.LastSeen, _ = time.Parse(timeLayout, last)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM conversations WHERE user_id = ? AND session_id = ?`, userID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return res.RowsAffected()
}

// AppendAudit sanitizes query/response text and inserts the entry. The
// sanitization here is the enforcement point; no caller-side scrubbing
// is assumed.
func (s *SQLiteStore) AppendAudit(ctx context.Context, entry domain.AuditLogEntry) error {
	attempts, err := json.Marshal(orEmpty(entry.AccessAttempts))
	if err != nil {
		return fmt.Errorf("marshal access attempts: %w", err)
	}
	violations, err := json.Marshal(orEmpty(entry.SecurityViolations))
	if err != nil {
		return fmt.Errorf("marshal violations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO audit_log(id, user_id, role, action, query, response, intent, access_attempts, security_violations, client_ip, user_agent, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Role), entry.Action,
		sanitize.Scrub(entry.Query), sanitize.Scrub(entry.Response),
		entry.Intent, string(attempts), string(violations),
		entry.ClientIP, entry.UserAgent,
		entry.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (domain.UsageStats, error) {
	stats := domain.UsageStats{TurnsByIntent: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(DISTINCT session_id), COUNT(DISTINCT user_id) FROM conversations`).
		Scan(&stats.TotalTurns, &stats.TotalSessions, &stats.TotalUsers)
	if err != nil {
		return stats, fmt.Errorf("stats totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT intent, COUNT(*) FROM conversations GROUP BY intent`)
	if err != nil {
		return stats, fmt.Errorf("stats by intent: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		var count int64
		if err := rows.Scan(&tag, &count); err != nil {
			return stats, fmt.Errorf("scan intent count: %w", err)
		}
		stats.TurnsByIntent[tag] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM audit_log WHERE security_violations != '[]'`).
		Scan(&stats.SecurityDenies)
	if err != nil {
		return stats, fmt.Errorf("stats denials: %w", err)
	}
	return stats, nil
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
