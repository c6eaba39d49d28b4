package repository

import (
	"context"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingRepository persists chunk embeddings and answers nearest-neighbor
// queries scoped to a board.
type EmbeddingRepository struct {
	pool *pgxpool.Pool
}

func NewEmbeddingRepository(pool *pgxpool.Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// ReplaceUnit replaces all embedding records for a unit with the given set.
// Delete and insert run in one transaction, so a concurrent reader observes
// either the fully-old or fully-new chunk set, never a mix.
func (r *EmbeddingRepository) ReplaceUnit(ctx context.Context, unitID, boardID string, records []domain.EmbeddingRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM unit_embeddings WHERE unit_id = $1`, unitID); err != nil {
			return err
		}

		for _, rec := range records {
			_, err := tx.Exec(ctx,
				`INSERT INTO unit_embeddings (unit_id, board_id, chunk_index, chunk_text, embedding)
				 VALUES ($1, $2, $3, $4, $5)`,
				unitID, boardID, rec.ChunkIndex, rec.ChunkText, pgvector.NewVector(rec.Embedding),
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteUnit removes all embedding records for a unit. Deleting a unit that
// has no records is not an error.
func (r *EmbeddingRepository) DeleteUnit(ctx context.Context, unitID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM unit_embeddings WHERE unit_id = $1`, unitID)
	return err
}

// Search returns up to limit records scoped to boardID, optionally narrowed
// to unitIDs, ordered by descending cosine similarity. Ties break by
// ascending unit id then chunk index so results are deterministic.
func (r *EmbeddingRepository) Search(ctx context.Context, queryVector []float32, boardID string, limit int, unitIDs []string) ([]*domain.RetrievedChunk, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidLimit
	}
	if boardID == "" {
		return nil, domain.ErrMissingBoardID
	}

	vec := pgvector.NewVector(queryVector)

	query := `
		SELECT unit_id, chunk_index, chunk_text, 1 - (embedding <=> $1) AS similarity
		FROM unit_embeddings
		WHERE board_id = $2
		ORDER BY embedding <=> $1 ASC, unit_id ASC, chunk_index ASC
		LIMIT $3`
	args := []any{vec, boardID, limit}

	if len(unitIDs) > 0 {
		query = `
		SELECT unit_id, chunk_index, chunk_text, 1 - (embedding <=> $1) AS similarity
		FROM unit_embeddings
		WHERE board_id = $2 AND unit_id = ANY($3)
		ORDER BY embedding <=> $1 ASC, unit_id ASC, chunk_index ASC
		LIMIT $4`
		args = []any{vec, boardID, unitIDs, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.RetrievedChunk, 0, limit)
	for rows.Next() {
		var c domain.RetrievedChunk
		if err := rows.Scan(&c.UnitID, &c.ChunkIndex, &c.ChunkText, &c.Similarity); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}

	return results, rows.Err()
}

// CountUnit returns the number of stored chunks for a unit.
func (r *EmbeddingRepository) CountUnit(ctx context.Context, unitID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM unit_embeddings WHERE unit_id = $1`, unitID,
	).Scan(&count)
	return count, err
}
