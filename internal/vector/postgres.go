package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Postgres implements chunk storage and search over PostgreSQL with the
// pgvector extension. The dense leg orders by cosine distance on the
// embedding column; the lexical leg matches the generated tsvector column
// with websearch_to_tsquery and ranks with ts_rank_cd.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres querier backed by the given pool.
// The pool must have pgvector types registered (see app setup).
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

// CreateCollection claims a collection name. The insert is the concurrency
// control: with ON CONFLICT DO NOTHING, exactly one of any number of
// concurrent callers wins the claim. Returns true when this call created
// the row, false when the collection already existed.
func (p *Postgres) CreateCollection(ctx context.Context, name string, chunkSize int) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO collections (name, chunk_size) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, chunkSize)
	if err != nil {
		return false, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CollectionExists reports whether the named collection has been claimed.
func (p *Postgres) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %q: %w", name, err)
	}
	return exists, nil
}

// DeleteCollection removes a collection and, via ON DELETE CASCADE, all of
// its chunks. Returns true when a collection row was actually deleted.
func (p *Postgres) DeleteCollection(ctx context.Context, name string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete collection %q: %w", name, err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertChunks writes records in a single batch round trip. Re-inserting an
// existing chunk ID updates its content, embedding, and metadata, so
// re-indexing a file is idempotent.
func (p *Postgres) InsertChunks(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk %q: %w", rec.ID, err)
		}
		batch.Queue(
			`INSERT INTO chunks (id, collection, content, embedding, metadata)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET content = EXCLUDED.content,
			     embedding = EXCLUDED.embedding,
			     metadata = EXCLUDED.metadata`,
			rec.ID, rec.Collection, rec.Content,
			pgvector.NewVector(rec.Embedding), metadataJSON)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			p.logger.Warn("failed to close batch results", "error", err)
		}
	}()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk %q: %w", records[i].ID, err)
		}
	}

	return nil
}

// SearchDense returns the chunks closest to the query embedding by cosine
// distance, scored as cosine similarity. Distance ties break on ascending
// chunk ID so results are stable across runs.
func (p *Postgres) SearchDense(ctx context.Context, collection string, embedding []float32, limit int) ([]Result, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, content, metadata, created_at, 1 - (embedding <=> $2) AS score
		 FROM chunks
		 WHERE collection = $1
		 ORDER BY embedding <=> $2, id
		 LIMIT $3`,
		collection, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("dense search failed: %w", err)
	}
	defer rows.Close()

	return p.scanResults(rows, collection)
}

// SearchLexical returns chunks matching the query under Postgres full-text
// search, ranked by ts_rank_cd. websearch_to_tsquery parses free-form user
// text safely, so no query sanitization is needed here. A query with no
// usable lexemes matches nothing and returns an empty slice.
func (p *Postgres) SearchLexical(ctx context.Context, collection, query string, limit int) ([]Result, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, content, metadata, created_at, ts_rank_cd(tsv, q) AS score
		 FROM chunks, websearch_to_tsquery('english', $2) q
		 WHERE collection = $1 AND tsv @@ q
		 ORDER BY score DESC, id
		 LIMIT $3`,
		collection, query, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}
	defer rows.Close()

	return p.scanResults(rows, collection)
}

// CountChunks returns the number of chunks stored in a collection.
func (p *Postgres) CountChunks(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM chunks WHERE collection = $1`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// scanResults converts search rows to Results. Malformed metadata degrades
// to an empty map rather than failing the whole search.
func (p *Postgres) scanResults(rows pgx.Rows, collection string) ([]Result, error) {
	var results []Result

	for rows.Next() {
		var (
			rec          Record
			metadataJSON []byte
			score        float64
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &metadataJSON, &rec.CreatedAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}

		rec.Collection = collection
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			p.logger.Warn("failed to parse chunk metadata", "chunk_id", rec.ID, "error", err)
			rec.Metadata = make(map[string]string)
		}

		results = append(results, Result{Record: rec, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search rows: %w", err)
	}

	return results, nil
}
