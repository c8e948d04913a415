package chat

import (
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/retriva/retriva/internal/log"
	"github.com/retriva/retriva/internal/session"
)

func TestConfigValidate(t *testing.T) {
	// Field-by-field validation without standing up Genkit: start from a
	// config that only fails on the Genkit instance itself.
	base := func() Config {
		return Config{
			SessionStore: &session.Store{},
			Logger:       log.NewNop(),
			ModelName:    "googleai/gemini-2.5-flash",
			Tools:        []ai.Tool{nil},
		}
	}

	cfg := base()
	if err := cfg.validate(); err == nil || !strings.Contains(err.Error(), "genkit") {
		t.Errorf("validate() = %v, want genkit error", err)
	}

	cfg = base()
	cfg.SessionStore = nil
	if err := cfg.validate(); err == nil || !strings.Contains(err.Error(), "session") {
		t.Errorf("validate() = %v, want session store error", err)
	}

	cfg = base()
	cfg.Logger = nil
	if err := cfg.validate(); err == nil || !strings.Contains(err.Error(), "logger") {
		t.Errorf("validate() = %v, want logger error", err)
	}

	cfg = base()
	cfg.ModelName = ""
	if err := cfg.validate(); err == nil || !strings.Contains(err.Error(), "model") {
		t.Errorf("validate() = %v, want model error", err)
	}

	cfg = base()
	cfg.Tools = nil
	if err := cfg.validate(); err == nil || !strings.Contains(err.Error(), "tool") {
		t.Errorf("validate() = %v, want tools error", err)
	}
}

func TestHistoryMessages(t *testing.T) {
	history := []session.Message{
		{Role: session.RoleUser, Content: "what is a mutex?"},
		{Role: session.RoleModel, Content: "a mutual exclusion lock"},
		{Role: "unknown", Content: "dropped"},
		{Role: session.RoleUser, Content: "show an example"},
	}

	messages := historyMessages(history)

	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3 (unknown role dropped)", len(messages))
	}
	if messages[0].Role != ai.RoleUser {
		t.Errorf("message 0 role = %v", messages[0].Role)
	}
	if messages[0].Content[0].Text != "what is a mutex?" {
		t.Errorf("message 0 text = %q", messages[0].Content[0].Text)
	}
	if messages[1].Role != ai.RoleModel {
		t.Errorf("message 1 role = %v", messages[1].Role)
	}
	if messages[2].Content[0].Text != "show an example" {
		t.Errorf("message 2 text = %q", messages[2].Content[0].Text)
	}
}

func TestHistoryMessages_Empty(t *testing.T) {
	if got := historyMessages(nil); len(got) != 0 {
		t.Errorf("historyMessages(nil) = %d messages", len(got))
	}
}

func TestSystemPromptMentionsSentinels(t *testing.T) {
	// The prompt and the grounding package form one contract; a drifted
	// sentinel name would silently break the model's behavior.
	if !strings.Contains(systemPrompt, "NO_RELEVANT_CONTEXT_FOUND") {
		t.Error("system prompt does not mention the empty-context sentinel")
	}
	if !strings.Contains(systemPrompt, "ERROR_RETRIEVING_CONTEXT") {
		t.Error("system prompt does not mention the retrieval-error sentinel")
	}
	if !strings.Contains(systemPrompt, SearchToolName) {
		t.Error("system prompt does not mention the search tool")
	}
}
