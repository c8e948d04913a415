package retrieve

import (
	"context"
	"strconv"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/retriva/retriva/internal/vector"
)

// Define registers this retriever with Genkit under the given name, so
// flows can pass it to ai.WithDocs pipelines or invoke it directly.
//
// Usage:
//
//	r, _ := retrieve.New(store, retrieve.Config{Collection: "docs"})
//	docRetriever := r.Define(g, "hybrid-retriever")
func (r *Retriever) Define(g *genkit.Genkit, name string) ai.Retriever {
	return genkit.DefineRetriever(
		g, name, nil,
		func(ctx context.Context, req *ai.RetrieverRequest) (*ai.RetrieverResponse, error) {
			queryText := extractQueryText(req)
			topK := extractTopK(req, DefaultTopK)

			results, err := r.Search(ctx, queryText, WithTopK(topK))
			if err != nil {
				return nil, err
			}

			return &ai.RetrieverResponse{
				Documents: convertToGenkitDocuments(results),
			}, nil
		},
	)
}

// extractQueryText extracts text from RetrieverRequest.Query.
func extractQueryText(req *ai.RetrieverRequest) string {
	if req.Query != nil && len(req.Query.Content) > 0 {
		return req.Query.Content[0].Text
	}
	return ""
}

// extractTopK reads a "k" option from the request, accepting the numeric
// types JSON decoding can produce plus strings. Out-of-range and malformed
// values fall back to defaultK; clamping happens in Search.
func extractTopK(req *ai.RetrieverRequest, defaultK int) int {
	opts, ok := req.Options.(map[string]any)
	if !ok {
		return defaultK
	}
	k, exists := opts["k"]
	if !exists {
		return defaultK
	}

	switch v := k.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultK
}

// convertToGenkitDocuments converts fused results to Genkit ai.Document,
// carrying chunk metadata plus the fused score.
func convertToGenkitDocuments(results []vector.Result) []*ai.Document {
	docs := make([]*ai.Document, len(results))
	for i, result := range results {
		metadata := make(map[string]any, len(result.Record.Metadata)+2)
		for k, v := range result.Record.Metadata {
			metadata[k] = v
		}
		metadata["chunk_id"] = result.Record.ID
		metadata["score"] = result.Score

		docs[i] = ai.DocumentFromText(result.Record.Content, metadata)
	}
	return docs
}
