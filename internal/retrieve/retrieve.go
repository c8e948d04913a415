// Package retrieve implements hybrid retrieval: a dense vector-similarity
// leg and a sparse lexical leg run concurrently against the same
// collection, and their rankings are fused with Reciprocal Rank Fusion.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retriva/retriva/internal/vector"
)

// Searcher defines the storage operations Retriever needs. Interface
// defined by the consumer; vector.Store satisfies it.
type Searcher interface {
	// EmbedQuery embeds a query string for the dense leg.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// SearchDense runs the vector-similarity leg.
	SearchDense(ctx context.Context, collection string, embedding []float32, limit int) ([]vector.Result, error)

	// SearchLexical runs the full-text leg.
	SearchLexical(ctx context.Context, collection, query string, limit int) ([]vector.Result, error)
}

// TopK bounds. Requests outside the range are clamped, not rejected, so a
// misbehaving caller degrades to a sane query instead of an error.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// DefaultTimeout bounds a single hybrid search, covering the query
// embedding call and both legs.
const DefaultTimeout = 10 * time.Second

// ErrEmptyQuery indicates a blank query string.
var ErrEmptyQuery = errors.New("retrieve: query must not be empty")

// Retriever performs hybrid search against one collection.
//
// Retriever is safe for concurrent use by multiple goroutines.
type Retriever struct {
	searcher   Searcher
	collection string
	timeout    time.Duration
	logger     *slog.Logger
}

// Config holds Retriever construction parameters.
type Config struct {
	// Collection is the collection to search. Required.
	Collection string

	// Timeout bounds each Search call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger for debugging (nil = slog.Default()).
	Logger *slog.Logger
}

// New creates a Retriever.
func New(searcher Searcher, cfg Config) (*Retriever, error) {
	if searcher == nil {
		return nil, errors.New("retrieve: searcher is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("retrieve: collection is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Retriever{
		searcher:   searcher,
		collection: cfg.Collection,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}, nil
}

// SearchOption configures a single Search call.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK int
}

// WithTopK sets the number of fused results to return. Values are clamped
// to [1, MaxTopK].
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// clampTopK forces k into [1, MaxTopK].
func clampTopK(k int) int {
	if k < 1 {
		return 1
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// Search runs both retrieval legs concurrently and fuses their rankings.
// Each leg fetches topK candidates; fusion returns at most topK results
// ordered by fused score, ties broken by ascending chunk ID. An empty
// result set is a valid outcome, not an error. Results are deterministic
// for a fixed index state.
func (r *Retriever) Search(ctx context.Context, query string, opts ...SearchOption) ([]vector.Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cfg := &searchConfig{topK: DefaultTopK}
	for _, opt := range opts {
		opt(cfg)
	}
	topK := clampTopK(cfg.topK)

	queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The dense leg needs the query embedding first; the lexical leg only
	// needs the raw text, so it starts immediately.
	var dense, lexical []vector.Result

	g, gctx := errgroup.WithContext(queryCtx)
	g.Go(func() error {
		embedding, err := r.searcher.EmbedQuery(gctx, query)
		if err != nil {
			return fmt.Errorf("dense leg: %w", err)
		}
		dense, err = r.searcher.SearchDense(gctx, r.collection, embedding, topK)
		if err != nil {
			return fmt.Errorf("dense leg: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lexical, err = r.searcher.SearchLexical(gctx, r.collection, query, topK)
		if err != nil {
			return fmt.Errorf("lexical leg: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("hybrid search timeout after %s: %w", r.timeout, err)
		}
		return nil, err
	}

	fused := fuseRRF([][]vector.Result{dense, lexical}, topK)

	r.logger.Debug("hybrid search complete",
		"collection", r.collection,
		"dense_hits", len(dense),
		"lexical_hits", len(lexical),
		"fused", len(fused))

	return fused, nil
}

// Collection returns the collection this retriever searches.
func (r *Retriever) Collection() string {
	return r.collection
}
