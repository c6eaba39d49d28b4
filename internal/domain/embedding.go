package domain

// Chunk is a bounded substring of a unit's text before it has been embedded.
// It is a pure function of the source text and chunking parameters and has no
// stored identity.
type Chunk struct {
	Index int
	Text  string
}

// EmbeddingRecord is one stored (unit, chunk, vector) tuple. BoardID is
// denormalized so searches can be scoped without joining against the unit
// owner's tables. ChunkIndex is unique and contiguous per UnitID, starting at
// 0, in original text order.
type EmbeddingRecord struct {
	UnitID     string
	BoardID    string
	ChunkIndex int
	ChunkText  string
	Embedding  []float32
}

// RetrievedChunk is a search hit. Similarity is 1 - cosine distance, so an
// identical vector scores 1.0 and an orthogonal one 0.0.
type RetrievedChunk struct {
	UnitID     string
	ChunkIndex int
	ChunkText  string
	Similarity float32
}
