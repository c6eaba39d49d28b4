package service

import (
	"context"
	"strings"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/telemetry"
)

// DefaultRetrieveLimit is the top-k used when a caller does not name one.
const DefaultRetrieveLimit = 10

// SearchStore defines the vector store surface used by the read path.
type SearchStore interface {
	Search(ctx context.Context, queryVector []float32, boardID string, limit int, unitIDs []string) ([]*domain.RetrievedChunk, error)
}

// RetrieveInput scopes one retrieval. UnitIDs, when set, narrows the search
// to those units; group-style filters are resolved to unit ids by the caller
// before they reach this layer.
type RetrieveInput struct {
	Query   string
	BoardID string
	Limit   int
	UnitIDs []string
}

// RetrievalService embeds a query and returns the board's most similar
// chunks in rank order. Downstream failures propagate unchanged; retry
// policy belongs to the caller.
type RetrievalService struct {
	embedding EmbeddingClient
	store     SearchStore
}

func NewRetrievalService(embedding EmbeddingClient, store SearchStore) *RetrievalService {
	return &RetrievalService{
		embedding: embedding,
		store:     store,
	}
}

// Retrieve returns up to input.Limit chunks scoped to the board, ordered by
// descending similarity. An empty or unpopulated scope yields an empty
// slice, never an error.
func (s *RetrievalService) Retrieve(ctx context.Context, input RetrieveInput) ([]*domain.RetrievedChunk, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrBlankQuery
	}
	if input.BoardID == "" {
		return nil, domain.ErrMissingBoardID
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultRetrieveLimit
	}
	if limit < 0 {
		return nil, domain.ErrInvalidLimit
	}

	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		BoardID:   input.BoardID,
		Operation: "retrieve",
	})
	defer span.End()

	queryVector, err := s.embedding.GenerateEmbedding(ctx, input.Query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results, err := s.store.Search(ctx, queryVector, input.BoardID, limit, input.UnitIDs)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return results, nil
}
