// Package chat implements the grounded conversational agent. The model
// answers through an agentic loop: it calls the hybrid search tool, reads
// the assembled context, and produces an answer bound to that context by
// the system prompt.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/retriva/retriva/internal/log"
	"github.com/retriva/retriva/internal/session"
)

// Sentinel errors. HTTP handlers map them to status codes with errors.Is().
var (
	ErrInvalidSession  = errors.New("chat: invalid session")
	ErrExecutionFailed = errors.New("chat: execution failed")
)

// FallbackResponseMessage is returned when the model produces an empty
// response with no tool activity.
const FallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// DefaultMaxTurns bounds the agentic loop: one retrieval round plus the
// answer fits well within it, while a confused model cannot spin forever.
const DefaultMaxTurns = 5

// Response represents the complete result of an agent execution.
type Response struct {
	FinalText    string            // Model's final text output
	ToolRequests []*ai.ToolRequest // Tool requests made during execution
}

// StreamCallback is called for each chunk of a streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Config contains all required parameters for the Chat agent.
type Config struct {
	Genkit       *genkit.Genkit
	SessionStore *session.Store
	Logger       log.Logger
	Tools        []ai.Tool // Pre-registered tools (the search tool at minimum)

	// ModelName is the full Genkit model name, e.g. "googleai/gemini-2.5-flash".
	ModelName string

	// Temperature for generation. Zero is a valid value and is passed through.
	Temperature float64

	// MaxTurns caps the agentic loop (zero = DefaultMaxTurns).
	MaxTurns int

	// HistoryLimit caps how many prior messages are replayed to the model
	// (zero = session.DefaultHistoryLimit).
	HistoryLimit int

	// RetryConfig for model calls (zero-value uses defaults).
	RetryConfig RetryConfig

	// RateLimiter for proactive rate limiting (nil = default 10 rps, burst 30).
	RateLimiter *rate.Limiter
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.SessionStore == nil {
		return errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	return nil
}

// Chat is the conversational agent.
//
// Chat is stateless across requests; conversation state lives in the
// session store. All configuration is captured immutably at construction,
// so a single Chat is safe for concurrent use.
type Chat struct {
	modelName    string
	temperature  float64
	maxTurns     int
	historyLimit int

	retryConfig RetryConfig
	rateLimiter *rate.Limiter

	g         *genkit.Genkit
	sessions  *session.Store
	logger    log.Logger
	tools     []ai.Tool
	toolRefs  []ai.ToolRef // cached: ai.Tool implements ai.ToolRef
	toolNames string       // cached comma-separated list for logging
}

// New creates a Chat agent.
//
// Example:
//
//	agent, err := chat.New(chat.Config{
//	    Genkit:       g,
//	    SessionStore: sessions,
//	    Logger:       logger,
//	    Tools:        []ai.Tool{searchTool},
//	    ModelName:    cfg.FullModelName(),
//	    Temperature:  cfg.Temperature,
//	    MaxTurns:     cfg.MaxTurns,
//	})
func New(cfg Config) (*Chat, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	c := &Chat{
		modelName:    cfg.ModelName,
		temperature:  cfg.Temperature,
		maxTurns:     maxTurns,
		historyLimit: cfg.HistoryLimit,

		retryConfig: retryConfig,
		rateLimiter: rl,

		g:         cfg.Genkit,
		sessions:  cfg.SessionStore,
		logger:    cfg.Logger,
		tools:     cfg.Tools,
		toolRefs:  toolRefs,
		toolNames: strings.Join(names, ", "),
	}

	c.logger.Info("chat agent initialized",
		"model", c.modelName,
		"tools", c.toolNames,
		"max_turns", c.maxTurns)

	return c, nil
}

// EnsureSession resolves a session reference from flow input. An empty
// string starts a new session; anything else must be an existing session's
// UUID.
func (c *Chat) EnsureSession(ctx context.Context, idStr string) (uuid.UUID, error) {
	if idStr == "" {
		sess, err := c.sessions.Create(ctx, "")
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
		}
		return sess.ID, nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if _, err := c.sessions.Get(ctx, id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
		}
		return uuid.Nil, err
	}
	return id, nil
}

// Execute runs the chat agent with the given input (non-streaming).
// This is a convenience wrapper around ExecuteStream with nil callback.
func (c *Chat) Execute(ctx context.Context, sessionID uuid.UUID, input string) (*Response, error) {
	return c.ExecuteStream(ctx, sessionID, input, nil)
}

// ExecuteStream runs the chat agent with optional streaming output.
// If callback is non-nil, it is called for each chunk as it is generated.
// The final response is always returned after generation completes.
func (c *Chat) ExecuteStream(ctx context.Context, sessionID uuid.UUID, input string, callback StreamCallback) (*Response, error) {
	c.logger.Debug("executing chat agent",
		"session_id", sessionID,
		"streaming", callback != nil)

	history, err := c.sessions.History(ctx, sessionID, c.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	messages := historyMessages(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithTools(c.toolRefs...),
		ai.WithMaxTurns(c.maxTurns),
		ai.WithConfig(map[string]any{"temperature": c.temperature}),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	resp, err := c.generateWithRetry(ctx, opts)
	if err != nil {
		return nil, err
	}

	responseText := resp.Text()

	// Apply fallback only when truly empty: empty text with pending tool
	// requests is valid agentic behavior.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		c.logger.Warn("model returned empty response with no tool requests",
			"session_id", sessionID)
		responseText = FallbackResponseMessage
	}

	// Persist the turn. A history write failure degrades the session but
	// must not discard an answer the user already paid for.
	if err := c.sessions.AppendMessage(ctx, sessionID, session.RoleUser, input); err != nil {
		c.logger.Error("failed to persist user message", "error", err)
	} else if err := c.sessions.AppendMessage(ctx, sessionID, session.RoleModel, responseText); err != nil {
		c.logger.Error("failed to persist model message", "error", err)
	}

	return &Response{
		FinalText:    responseText,
		ToolRequests: resp.ToolRequests(),
	}, nil
}

// historyMessages converts stored session history to model messages.
// Messages are built fresh on every call, so concurrent executions never
// share mutable message structs.
func historyMessages(history []session.Message) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case session.RoleUser:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		case session.RoleModel:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		}
	}
	return messages
}
