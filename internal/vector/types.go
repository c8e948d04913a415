package vector

import "time"

// EmbeddingDimension is the dimensionality of stored embeddings. It must
// match the vector(N) column in the chunks table and the output of the
// configured embedding model (gemini-embedding-001 at 768 dimensions).
const EmbeddingDimension = 768

// Record is one stored chunk: the unit of indexing and retrieval.
type Record struct {
	ID         string            // Deterministic chunk ID
	Collection string            // Owning collection name
	Content    string            // Chunk text
	Embedding  []float32         // Dense embedding, EmbeddingDimension long
	Metadata   map[string]string // File attributes carried from the loader
	CreatedAt  time.Time
}

// Result is a single search hit from one retrieval leg.
type Result struct {
	Record Record

	// Score is leg-specific: cosine similarity (0-1) for the dense leg,
	// ts_rank_cd for the lexical leg. Scores from different legs are never
	// compared directly; rank fusion operates on positions only.
	Score float64
}
