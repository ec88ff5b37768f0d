// Package httpapi exposes the conversational HR engine over REST. All
// query and history routes sit behind JWT auth; identity comes from the
// verified token, never from the request body.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/pipeline"
	"github.com/stafflane/hr-copilot/internal/policy"
	"github.com/stafflane/hr-copilot/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	JWTSecret      []byte
	MetricsEnabled bool
	PolicyVersion  func() string
}

// Server routes requests into the query pipeline and the stores.
type Server struct {
	pipe          *pipeline.Pipeline
	conversations store.ConversationStore
	stats         store.StatsStore
	tables        func() *policy.Tables
	logger        *log.Logger
	opts          Options
}

// NewServer creates the HTTP surface.
func NewServer(pipe *pipeline.Pipeline, conversations store.ConversationStore, stats store.StatsStore, tables func() *policy.Tables, logger *log.Logger, opts Options) *Server {
	return &Server{
		pipe:          pipe,
		conversations: conversations,
		stats:         stats,
		tables:        tables,
		logger:        logger,
		opts:          opts,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.opts.JWTSecret))
		r.Post("/query", s.handleQuery)
		r.Get("/history/{sessionID}", s.handleHistory)
		r.Get("/sessions", s.handleSessions)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/stats", s.handleStats)
	})

	return r
}

type queryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("invalid JSON body"))
		return
	}

	resp, err := s.pipe.Process(r.Context(), pipeline.Request{
		Identity:  identity,
		Message:   req.Message,
		SessionID: req.SessionID,
		ClientIP:  r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	limit := intParam(r, "limit", 50)
	offset := intParam(r, "offset", 0)

	turns, total, err := s.conversations.TurnsBySession(r.Context(), identity.UserID, sessionID, limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversations": turns,
		"session_id":    sessionID,
		"total":         total,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	limit := intParam(r, "limit", 20)

	sessions, err := s.conversations.SessionsByUser(r.Context(), identity.UserID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.SessionInfo{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := s.conversations.DeleteSession(r.Context(), identity.UserID, sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if deleted == 0 {
		s.writeError(w, domain.ErrNotFound("session %s not found", sessionID))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deleted_count": deleted,
		"session_id":    sessionID,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	tables := s.tables()
	suggestions := tables.Suggestions[identity.Role]
	if suggestions == nil {
		suggestions = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"role":        identity.Role,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	if identity.Role != domain.RoleAdmin {
		s.writeError(w, domain.ErrAccessDenied("usage statistics require the admin role"))
		return
	}

	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.opts.PolicyVersion != nil {
		body["policy_version"] = s.opts.PolicyVersion()
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("[httpapi] failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("[httpapi] internal error: %v", err)
	}
	s.writeJSON(w, status, map[string]any{
		"code":    status,
		"message": clientMessage(err),
	})
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
