//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimensions = 1536

// basisVector returns a unit vector pointing along the given axis. Cosine
// similarity between two basis vectors is 1 for the same axis, 0 otherwise,
// which makes ranking assertions exact.
func basisVector(axis int) []float32 {
	v := make([]float32, testDimensions)
	v[axis%testDimensions] = 1
	return v
}

func record(unitID, boardID string, chunkIndex, axis int, text string) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		UnitID:     unitID,
		BoardID:    boardID,
		ChunkIndex: chunkIndex,
		ChunkText:  text,
		Embedding:  basisVector(axis),
	}
}

func TestEmbeddingRepository_ReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", []domain.EmbeddingRecord{
		record("unit-1", "board-1", 0, 0, "matching chunk"),
		record("unit-1", "board-1", 1, 1, "orthogonal chunk"),
	}))
	require.NoError(t, repo.ReplaceUnit(ctx, "unit-2", "board-2", []domain.EmbeddingRecord{
		record("unit-2", "board-2", 0, 0, "other board chunk"),
	}))

	results, err := repo.Search(ctx, basisVector(0), "board-1", 10, nil)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "matching chunk", results[0].ChunkText)
	assert.InDelta(t, 1.0, results[0].Similarity, 0.001)
	assert.Equal(t, "orthogonal chunk", results[1].ChunkText)
	assert.InDelta(t, 0.0, results[1].Similarity, 0.001)
}

func TestEmbeddingRepository_Search_BoardScoping(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", []domain.EmbeddingRecord{
		record("unit-1", "board-1", 0, 0, "board one"),
	}))
	require.NoError(t, repo.ReplaceUnit(ctx, "unit-2", "board-2", []domain.EmbeddingRecord{
		record("unit-2", "board-2", 0, 0, "board two"),
	}))

	results, err := repo.Search(ctx, basisVector(0), "board-1", 10, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "unit-1", results[0].UnitID)
}

func TestEmbeddingRepository_Search_UnitFilter(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", []domain.EmbeddingRecord{
		record("unit-1", "board-1", 0, 0, "wanted"),
	}))
	require.NoError(t, repo.ReplaceUnit(ctx, "unit-2", "board-1", []domain.EmbeddingRecord{
		record("unit-2", "board-1", 0, 0, "excluded"),
	}))

	results, err := repo.Search(ctx, basisVector(0), "board-1", 10, []string{"unit-1"})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "unit-1", results[0].UnitID)
}

func TestEmbeddingRepository_Search_TieBreakIsDeterministic(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	// Identical vectors: ties must order by unit_id, then chunk_index.
	require.NoError(t, repo.ReplaceUnit(ctx, "unit-b", "board-1", []domain.EmbeddingRecord{
		record("unit-b", "board-1", 0, 0, "b0"),
	}))
	require.NoError(t, repo.ReplaceUnit(ctx, "unit-a", "board-1", []domain.EmbeddingRecord{
		record("unit-a", "board-1", 1, 0, "a1"),
		record("unit-a", "board-1", 0, 0, "a0"),
	}))

	results, err := repo.Search(ctx, basisVector(0), "board-1", 10, nil)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a0", results[0].ChunkText)
	assert.Equal(t, "a1", results[1].ChunkText)
	assert.Equal(t, "b0", results[2].ChunkText)
}

func TestEmbeddingRepository_Search_LimitApplied(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	records := make([]domain.EmbeddingRecord, 5)
	for i := range records {
		records[i] = record("unit-1", "board-1", i, 0, "chunk")
	}
	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", records))

	results, err := repo.Search(ctx, basisVector(0), "board-1", 3, nil)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestEmbeddingRepository_Search_InvalidInputs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	_, err := repo.Search(ctx, basisVector(0), "board-1", 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)

	_, err = repo.Search(ctx, basisVector(0), "", 10, nil)
	assert.ErrorIs(t, err, domain.ErrMissingBoardID)
}

func TestEmbeddingRepository_ReplaceUnit_SwapsGenerations(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", []domain.EmbeddingRecord{
		record("unit-1", "board-1", 0, 0, "old gen chunk 0"),
		record("unit-1", "board-1", 1, 1, "old gen chunk 1"),
		record("unit-1", "board-1", 2, 2, "old gen chunk 2"),
	}))

	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", []domain.EmbeddingRecord{
		record("unit-1", "board-1", 0, 3, "new gen chunk 0"),
	}))

	count, err := repo.CountUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := repo.Search(ctx, basisVector(3), "board-1", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new gen chunk 0", results[0].ChunkText)
}

func TestEmbeddingRepository_DeleteUnit_Idempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewEmbeddingRepository(pool)

	require.NoError(t, repo.ReplaceUnit(ctx, "unit-1", "board-1", []domain.EmbeddingRecord{
		record("unit-1", "board-1", 0, 0, "chunk"),
	}))

	require.NoError(t, repo.DeleteUnit(ctx, "unit-1"))

	count, err := repo.CountUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Second delete of the same unit is a no-op, not an error.
	assert.NoError(t, repo.DeleteUnit(ctx, "unit-1"))
}
