package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/retriva/retriva/internal/ground"
	"github.com/retriva/retriva/internal/retrieve"
	"github.com/retriva/retriva/internal/vector"
)

// SearchToolName is the tool the model calls to ground its answers.
const SearchToolName = "search_documents"

// ContextRetriever defines the retrieval operation the search tool needs.
// Interface defined by the consumer; retrieve.Retriever satisfies it.
type ContextRetriever interface {
	Search(ctx context.Context, query string, opts ...retrieve.SearchOption) ([]vector.Result, error)
}

// SearchInput is the tool's input schema, visible to the model.
type SearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query describing what information is needed"`
}

// searchToolTimeout bounds one tool invocation so a slow retrieval cannot
// stall the whole agent loop.
const searchToolTimeout = 5 * time.Second

// DefineSearchTool registers the hybrid search tool with Genkit.
//
// The tool never returns a Go error for retrieval failures: failures become
// the ERROR_RETRIEVING_CONTEXT sentinel in the tool output, so the agent
// loop keeps running and the model tells the user retrieval failed. Empty
// retrieval becomes NO_RELEVANT_CONTEXT_FOUND the same way.
func DefineSearchTool(g *genkit.Genkit, retriever ContextRetriever, topK int, logger *slog.Logger) ai.Tool {
	return genkit.DefineTool(g, SearchToolName,
		"Search the knowledge base using hybrid (semantic + keyword) retrieval. "+
			"Returns numbered context sections with their source file names.",
		searchHandler(retriever, topK, logger),
	)
}

// searchHandler builds the tool's handler function. Split from
// DefineSearchTool so the tool-boundary contract (sentinel text out, nil
// error) is testable against a fake retriever without a Genkit instance.
func searchHandler(retriever ContextRetriever, topK int, logger *slog.Logger) func(*ai.ToolContext, SearchInput) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	return func(tctx *ai.ToolContext, input SearchInput) (string, error) {
		ctx, cancel := context.WithTimeout(tctx, searchToolTimeout)
		defer cancel()

		logger.Info("searching documents", "query", input.Query, "top_k", topK)

		results, err := retriever.Search(ctx, input.Query, retrieve.WithTopK(topK))
		if err != nil {
			logger.Warn("retrieval failed, surfacing error to model", "error", err)
			return ground.ErrorText(err), nil
		}

		assembled := ground.Assemble(results)
		if assembled.Empty {
			logger.Info("no relevant context found", "query", input.Query)
		} else {
			logger.Info("retrieved context", "sources", len(assembled.Sources))
		}

		return assembled.Text, nil
	}
}
