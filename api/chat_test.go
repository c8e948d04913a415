package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retriva/retriva/internal/chat"
	"github.com/retriva/retriva/internal/log"
)

// TestChatHandler_InvalidInput tests the SSE handler with invalid input.
// Validation happens before the flow is touched, so a nil flow is fine here.
func TestChatHandler_InvalidInput(t *testing.T) {
	t.Parallel()

	logger := log.NewNop()
	h := NewChatHandler(nil, logger)

	t.Run("missing query", func(t *testing.T) {
		t.Parallel()

		body, _ := json.Marshal(chat.Input{
			Query:     "",
			SessionID: "test-session-id",
		})

		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h.handleStream(w, req)

		// SSE always returns 200 first; errors arrive as events
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "MISSING_QUERY")
		assert.Contains(t, w.Body.String(), "event: error")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h.handleStream(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
		assert.Contains(t, w.Body.String(), "event: error")
	})
}

// TestChatHandler_SSEFormat tests that SSE events are properly formatted.
func TestChatHandler_SSEFormat(t *testing.T) {
	t.Parallel()

	logger := log.NewNop()
	h := NewChatHandler(nil, logger)

	t.Run("error event format", func(t *testing.T) {
		t.Parallel()

		body, _ := json.Marshal(chat.Input{Query: ""})

		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", bytes.NewReader(body))
		w := httptest.NewRecorder()

		h.handleStream(w, req)

		// Verify SSE format: "event: <type>\ndata: <json>\n\n"
		lines := strings.Split(w.Body.String(), "\n")
		require.GreaterOrEqual(t, len(lines), 2)

		var foundEvent, foundData bool
		for _, line := range lines {
			if strings.HasPrefix(line, "event: error") {
				foundEvent = true
			}
			if strings.HasPrefix(line, "data: ") {
				foundData = true
				jsonData := strings.TrimPrefix(line, "data: ")
				var parsed map[string]any
				err := json.Unmarshal([]byte(jsonData), &parsed)
				assert.NoError(t, err, "SSE data should be valid JSON")
				assert.Contains(t, parsed, "code")
				assert.Contains(t, parsed, "message")
			}
		}

		assert.True(t, foundEvent, "should have 'event: error' line")
		assert.True(t, foundData, "should have 'data: ' line")
	})

	t.Run("chunk and done event format", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		flusher := w

		h.writeSSEChunk(w, flusher, "partial text")
		h.writeSSEDone(w, flusher, "full response", "session-123")

		out := w.Body.String()
		assert.Contains(t, out, "event: chunk\ndata: ")
		assert.Contains(t, out, `"text":"partial text"`)
		assert.Contains(t, out, "event: done\ndata: ")
		assert.Contains(t, out, `"response":"full response"`)
		assert.Contains(t, out, `"sessionId":"session-123"`)
	})
}

// TestChatHandler_RegisterRoutes tests route registration.
func TestChatHandler_RegisterRoutes(t *testing.T) {
	t.Parallel()

	logger := log.NewNop()

	t.Run("nil flow does not register routes", func(t *testing.T) {
		t.Parallel()

		h := NewChatHandler(nil, logger)
		mux := http.NewServeMux()
		h.RegisterRoutes(mux)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
