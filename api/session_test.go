package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retriva/retriva/internal/log"
	"github.com/retriva/retriva/internal/session"
)

// newUnreachableStore returns a store with no pool behind it. Handlers must
// reject the request before ever reaching the database.
func newUnreachableStore() *session.Store {
	return &session.Store{}
}

func TestSessionHandler_NilStore(t *testing.T) {
	logger := log.NewNop()
	h := NewSessionHandler(nil, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	t.Run("list returns 500", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("create returns 500", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"title":"x"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestSessionHandler_Create_Validation(t *testing.T) {
	logger := log.NewNop()
	// A non-nil store pointer gets past the nil check; validation errors
	// return before any query is issued.
	h := NewSessionHandler(newUnreachableStore(), logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("not json"))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("title too long", func(t *testing.T) {
		long := strings.Repeat("x", MaxTitleLength+1)
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"title":"`+long+`"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_Delete_InvalidID(t *testing.T) {
	logger := log.NewNop()
	h := NewSessionHandler(newUnreachableStore(), logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SESSION_ID")
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing uses default", "", DefaultListLimit},
		{"valid value", "limit=50", 50},
		{"non-numeric uses default", "limit=abc", DefaultListLimit},
		{"below min clamps", "limit=0", 1},
		{"above max clamps", "limit=999999", MaxListLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions?"+tc.query, nil)
			got := parseIntParam(req, "limit", DefaultListLimit, 1, MaxListLimit)
			assert.Equal(t, tc.want, got)
		})
	}
}
