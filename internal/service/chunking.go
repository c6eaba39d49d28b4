package service

import (
	"github.com/brightboard/brightboard/internal/domain"
)

// ChunkConfig controls how unit text is windowed before embedding.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    500,
		Overlap: 50,
	}
}

// Validate rejects parameter combinations that cannot produce forward
// progress. Violations are configuration errors and fail fast, never
// silently clamped.
func (c ChunkConfig) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return domain.ErrInvalidChunkParams
	}
	return nil
}

// ChunkText splits text into overlapping fixed-size windows with stable,
// contiguous indices starting at 0. Chunking is deterministic: the same text
// and config always yield an identical sequence, which is what makes
// re-embedding reproducible. Windows are measured in runes so multi-byte
// text never splits mid-character.
func ChunkText(text string, cfg ChunkConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []domain.Chunk{}, nil
	}

	step := cfg.Size - cfg.Overlap
	chunks := make([]domain.Chunk, 0, (len(runes)+step-1)/step)

	for start := 0; start < len(runes); start += step {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
