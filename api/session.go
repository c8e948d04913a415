package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/retriva/retriva/internal/log"
	"github.com/retriva/retriva/internal/session"
)

// Session validation constants.
const (
	MaxTitleLength   = 100
	DefaultListLimit = 100
	MaxListLimit     = 1000
	MaxListOffset    = 100000 // Reasonable upper bound for pagination offset
)

// SessionHandler handles session-related HTTP endpoints.
type SessionHandler struct {
	store  *session.Store
	logger log.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store *session.Store, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
}

// SessionResponse is the JSON shape of a session.
type SessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSessionResponse(s session.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID.String(),
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
}

// list returns sessions, newest first, with pagination support.
// Query parameters:
//   - limit: Maximum number of sessions to return (default: 100, max: 1000)
//   - offset: Number of sessions to skip (default: 0)
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.logger.Error("session store is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	sessions, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}

	items := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, toSessionResponse(s))
	}

	resp := map[string]any{
		"sessions": items,
		"total":    len(items),
		"limit":    limit,
		"offset":   offset,
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// create creates a new session.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.logger.Error("session store is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Title) > MaxTitleLength {
		http.Error(w, "title too long (max 100 characters)", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		req.Title = "New Session"
	}

	sess, err := h.store.Create(r.Context(), req.Title)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// delete removes a session and its messages.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.logger.Error("session store is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_SESSION_ID", "session id must be a UUID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session")
			return
		}
		h.logger.Error("failed to delete session", "error", err, "session_id", id)
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
