// Package ingest runs the indexing pipeline: load documents from a
// directory, split them into chunks, embed, and store. A collection is
// indexed exactly once: the database-level claim on the collection name
// decides the winner among concurrent runs, and a local file lock keeps
// repeated CLI invocations on one machine from racing the embedder.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/retriva/retriva/internal/chunk"
	"github.com/retriva/retriva/internal/loader"
)

// Sentinel errors. Callers check them with errors.Is().
var (
	// ErrIndexing indicates the embed-and-store stage failed. The
	// collection claim is released so a later run can retry.
	ErrIndexing = errors.New("ingest: indexing failed")

	// ErrLockBusy indicates another local ingest holds the lock.
	ErrLockBusy = errors.New("ingest: another ingestion is already running")
)

// lockRetryInterval is how often lock acquisition re-checks the lock file.
const lockRetryInterval = 500 * time.Millisecond

// Indexer defines the storage operations ingestion needs. Interface
// defined by the consumer; vector.Store satisfies it.
type Indexer interface {
	// EnsureCollection claims the collection; true when this call won.
	EnsureCollection(ctx context.Context, name string, chunkSize int) (bool, error)

	// DropCollection releases a claim after a failed run.
	DropCollection(ctx context.Context, name string) (bool, error)

	// Index embeds and stores chunks.
	Index(ctx context.Context, collection string, chunks []chunk.Chunk) error
}

// DocumentLoader loads documents from a directory tree.
type DocumentLoader interface {
	Load(ctx context.Context, dirPath string) ([]loader.Document, error)
}

// Options configures one ingestion run. ChunkSize is always explicit:
// there is no package default to fall back on, so two runs can never
// silently disagree about chunk geometry.
type Options struct {
	// Collection to claim and populate. Required.
	Collection string

	// Dir is the document directory. Required.
	Dir string

	// ChunkSize in runes. Required.
	ChunkSize int

	// ChunkOverlap in runes. Optional.
	ChunkOverlap int
}

// Result reports what an ingestion run did.
type Result struct {
	// Claimed is false when the collection already existed and the run
	// skipped indexing entirely.
	Claimed bool

	Documents int
	Chunks    int
	Duration  time.Duration
}

// Ingestor runs the pipeline.
type Ingestor struct {
	store   Indexer
	docs    DocumentLoader
	lockDir string
	logger  *slog.Logger
}

// Config holds Ingestor construction parameters.
type Config struct {
	// Store persists chunks. Required.
	Store Indexer

	// Loader reads documents. Required.
	Loader DocumentLoader

	// LockDir is where per-collection lock files live.
	// Empty means os.TempDir().
	LockDir string

	// Logger for progress reporting (nil = slog.Default()).
	Logger *slog.Logger
}

// New creates an Ingestor.
func New(cfg Config) (*Ingestor, error) {
	if cfg.Store == nil {
		return nil, errors.New("ingest: store is required")
	}
	if cfg.Loader == nil {
		return nil, errors.New("ingest: loader is required")
	}
	if cfg.LockDir == "" {
		cfg.LockDir = os.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Ingestor{
		store:   cfg.Store,
		docs:    cfg.Loader,
		lockDir: cfg.LockDir,
		logger:  cfg.Logger,
	}, nil
}

// Run executes one ingestion. The sequence is:
//
//  1. Take the local file lock for the collection.
//  2. Claim the collection in the database. If the claim loses, another
//     run (possibly on another machine) already indexed it; skip.
//  3. Load, chunk, embed, and store.
//
// A failure after a winning claim releases the claim, so the collection
// never sticks in a half-indexed state that blocks retries.
func (ing *Ingestor) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	splitter, err := chunk.New(opts.ChunkSize, chunk.WithOverlap(opts.ChunkOverlap))
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(ing.lockDir, "retriva-ingest-"+opts.Collection+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockBusy, err)
	}
	if !locked {
		return nil, ErrLockBusy
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			ing.logger.Warn("failed to release ingest lock", "error", err)
		}
	}()

	claimed, err := ing.store.EnsureCollection(ctx, opts.Collection, opts.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to claim collection %q: %w", opts.Collection, err)
	}
	if !claimed {
		ing.logger.Info("collection already indexed, skipping",
			"collection", opts.Collection)
		return &Result{Claimed: false, Duration: time.Since(start)}, nil
	}

	docs, err := ing.docs.Load(ctx, opts.Dir)
	if err != nil {
		ing.releaseClaim(ctx, opts.Collection)
		return nil, err
	}

	var chunks []chunk.Chunk
	for _, doc := range docs {
		chunks = append(chunks, splitter.Split(doc)...)
	}

	ing.logger.Info("indexing documents",
		"collection", opts.Collection,
		"documents", len(docs),
		"chunks", len(chunks),
		"chunk_size", opts.ChunkSize)

	if err := ing.store.Index(ctx, opts.Collection, chunks); err != nil {
		ing.releaseClaim(ctx, opts.Collection)
		return nil, fmt.Errorf("%w: %v", ErrIndexing, err)
	}

	result := &Result{
		Claimed:   true,
		Documents: len(docs),
		Chunks:    len(chunks),
		Duration:  time.Since(start),
	}

	ing.logger.Info("ingestion complete",
		"collection", opts.Collection,
		"documents", result.Documents,
		"chunks", result.Chunks,
		"duration", result.Duration)

	return result, nil
}

// releaseClaim drops a collection claimed by this run after a failure.
// Best effort with a fresh context: the run context may already be dead,
// and a stuck claim is worse than a lost log line.
func (ing *Ingestor) releaseClaim(ctx context.Context, collection string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if _, err := ing.store.DropCollection(releaseCtx, collection); err != nil {
		ing.logger.Error("failed to release collection claim after error",
			"collection", collection, "error", err)
	}
}
