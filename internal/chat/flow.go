package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input is the input for the chat Flow.
type Input struct {
	Query string `json:"query"`

	// SessionID continues an existing conversation. Empty starts a new
	// session; the assigned ID is returned in Output.
	SessionID string `json:"sessionId,omitempty"`
}

// Output is the output for the chat Flow.
type Output struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// StreamChunk is the streaming output type for the chat Flow.
// Each chunk contains partial text that can be displayed immediately.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the registered name of the chat Flow in Genkit.
const FlowName = "retriva/chat"

// Flow is the type alias for the chat agent's Genkit streaming Flow.
// Exported for use in the api package with genkit.Handler().
type Flow = core.Flow[Input, Output, StreamChunk]

// Package-level singleton: Genkit panics when the same flow name is
// registered twice, so tests and setup go through InitFlow exactly once.
var (
	flowOnce     sync.Once
	flow         *Flow
	flowInitDone bool
)

// InitFlow initializes the chat Flow singleton. Must be called exactly
// once during application startup; a second call returns an error.
func InitFlow(g *genkit.Genkit, agent *Chat) (*Flow, error) {
	var initialized bool
	flowOnce.Do(func() {
		flow = agent.DefineFlow(g)
		flowInitDone = true
		initialized = true
	})
	if !initialized && flowInitDone {
		return nil, fmt.Errorf("InitFlow called more than once")
	}
	return flow, nil
}

// GetFlow returns the initialized Flow singleton.
// Panics if InitFlow was not called - this indicates a programming error.
func GetFlow() *Flow {
	if !flowInitDone {
		panic("GetFlow called before InitFlow")
	}
	return flow
}

// ResetFlowForTesting resets the Flow singleton for testing.
// WARNING: Only use in tests. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
	flowInitDone = false
}

// DefineFlow defines the Genkit streaming Flow for the chat agent.
// Supports both streaming (via callback) and non-streaming invocation.
//
// The Flow is a thin wrapper: session resolution plus ExecuteStream. It
// exists for observability (DevUI tracing), typed input/output schemas,
// and HTTP exposure via genkit.Handler().
func (c *Chat) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			sessionID, err := c.EnsureSession(ctx, input.SessionID)
			if err != nil {
				return Output{SessionID: input.SessionID}, err
			}

			// When streamCb is nil (invoked via Run instead of Stream),
			// the agent runs in non-streaming mode.
			var callback StreamCallback
			if streamCb != nil {
				callback = func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
					if chunk == nil {
						return nil
					}
					for _, part := range chunk.Content {
						if part.Text != "" {
							if streamErr := streamCb(ctx, StreamChunk{Text: part.Text}); streamErr != nil {
								return streamErr
							}
						}
					}
					return nil
				}
			}

			resp, err := c.ExecuteStream(ctx, sessionID, input.Query, callback)
			if err != nil {
				return Output{SessionID: sessionID.String()}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
			}

			return Output{
				Response:  resp.FinalText,
				SessionID: sessionID.String(),
			}, nil
		},
	)
}
