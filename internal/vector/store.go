// Package vector stores document chunks with dense embeddings in
// PostgreSQL + pgvector and serves the two retrieval legs (dense vector
// similarity and lexical full-text search) that hybrid retrieval fuses.
package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/retriva/retriva/internal/chunk"
)

// Querier defines the database operations Store needs. The interface lives
// with its consumer (like io.Reader or sql.Driver) so tests can substitute
// a mock for the Postgres implementation.
type Querier interface {
	// CreateCollection claims a collection name; true when this call won.
	CreateCollection(ctx context.Context, name string, chunkSize int) (bool, error)

	// CollectionExists reports whether the collection has been claimed.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// DeleteCollection removes a collection and its chunks.
	DeleteCollection(ctx context.Context, name string) (bool, error)

	// InsertChunks writes chunk records idempotently.
	InsertChunks(ctx context.Context, records []Record) error

	// SearchDense runs the vector-similarity leg.
	SearchDense(ctx context.Context, collection string, embedding []float32, limit int) ([]Result, error)

	// SearchLexical runs the full-text leg.
	SearchLexical(ctx context.Context, collection, query string, limit int) ([]Result, error)

	// CountChunks counts chunks in a collection.
	CountChunks(ctx context.Context, collection string) (int64, error)
}

// embedBatchSize bounds how many chunks are sent to the embedder per
// request, keeping request payloads within API limits.
const embedBatchSize = 32

// Store manages chunk embeddings and search over a Querier.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a Store.
//
// Example (production):
//
//	store := vector.NewStore(vector.NewPostgres(pool, logger), embedder, logger)
//
// Example (testing):
//
//	store := vector.NewStore(mockQuerier, mockEmbedder, log.NewNop())
func NewStore(queries Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: queries, embedder: embedder, logger: logger}
}

// Index embeds chunks in batches and writes them to the collection.
// Chunk IDs are deterministic, so re-indexing the same content overwrites
// in place instead of duplicating.
func (s *Store) Index(ctx context.Context, collection string, chunks []chunk.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		input := make([]*ai.Document, 0, len(batch))
		for _, c := range batch {
			input = append(input, &ai.Document{
				Content: []*ai.Part{ai.NewTextPart(c.Content)},
			})
		}

		dim := int32(EmbeddingDimension)
		resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
			Input:   input,
			Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
		})
		if err != nil {
			return fmt.Errorf("failed to embed chunk batch: %w", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return fmt.Errorf("embedder returned %d embeddings for %d chunks",
				len(resp.Embeddings), len(batch))
		}

		records := make([]Record, 0, len(batch))
		for i, c := range batch {
			embedding := resp.Embeddings[i].Embedding
			if len(embedding) != EmbeddingDimension {
				return fmt.Errorf("embedding for chunk %q has %d dimensions, want %d",
					c.ID, len(embedding), EmbeddingDimension)
			}
			records = append(records, Record{
				ID:         c.ID,
				Collection: collection,
				Content:    c.Content,
				Embedding:  embedding,
				Metadata:   c.Metadata,
			})
		}

		if err := s.queries.InsertChunks(ctx, records); err != nil {
			return fmt.Errorf("failed to store chunk batch: %w", err)
		}

		s.logger.Debug("indexed chunk batch",
			"collection", collection, "batch_size", len(batch), "progress", end, "total", len(chunks))
	}

	return nil
}

// EmbedQuery embeds a single query string for the dense retrieval leg.
func (s *Store) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	dim := int32(EmbeddingDimension)
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(query)}},
		},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}
	return resp.Embeddings[0].Embedding, nil
}

// SearchDense runs the vector-similarity leg against a collection.
func (s *Store) SearchDense(ctx context.Context, collection string, embedding []float32, limit int) ([]Result, error) {
	return s.queries.SearchDense(ctx, collection, embedding, limit)
}

// SearchLexical runs the full-text leg against a collection.
func (s *Store) SearchLexical(ctx context.Context, collection, query string, limit int) ([]Result, error) {
	return s.queries.SearchLexical(ctx, collection, query, limit)
}

// EnsureCollection claims the collection name, returning true when this
// caller created it and false when it already existed.
func (s *Store) EnsureCollection(ctx context.Context, name string, chunkSize int) (bool, error) {
	return s.queries.CreateCollection(ctx, name, chunkSize)
}

// CollectionExists reports whether the collection has been claimed.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.queries.CollectionExists(ctx, name)
}

// DropCollection removes a collection and all of its chunks.
func (s *Store) DropCollection(ctx context.Context, name string) (bool, error) {
	return s.queries.DeleteCollection(ctx, name)
}

// Count returns the number of chunks stored in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	return s.queries.CountChunks(ctx, collection)
}
