package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brightboard/brightboard/internal/api"
	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/service"
)

// ChunkRetriever returns the most similar chunks for a query
type ChunkRetriever interface {
	Retrieve(ctx context.Context, input service.RetrieveInput) ([]*domain.RetrievedChunk, error)
}

type RetrieveHandler struct {
	svc      ChunkRetriever
	resolver GroupResolver
}

func NewRetrieveHandler(svc ChunkRetriever, resolver GroupResolver) *RetrieveHandler {
	return &RetrieveHandler{svc: svc, resolver: resolver}
}

type RetrieveRequest struct {
	BoardID  string   `json:"board_id"`
	Query    string   `json:"query"`
	Limit    int      `json:"limit,omitempty"`
	UnitIDs  []string `json:"unit_ids,omitempty"`
	GroupIDs []string `json:"group_ids,omitempty"`
}

type RetrievedChunkResponse struct {
	UnitID     string  `json:"unit_id"`
	ChunkIndex int     `json:"chunk_index"`
	ChunkText  string  `json:"chunk_text"`
	Similarity float32 `json:"similarity"`
}

type RetrieveResponse struct {
	Results []*RetrievedChunkResponse `json:"results"`
}

// Retrieve runs a similarity search scoped to one board
func (h *RetrieveHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BoardID == "" {
		api.Error(w, http.StatusBadRequest, "board_id is required")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	scope, scopeEmpty, err := resolveUnitScope(r.Context(), h.resolver, req.BoardID, req.UnitIDs, req.GroupIDs)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if scopeEmpty {
		api.Success(w, http.StatusOK, RetrieveResponse{Results: []*RetrievedChunkResponse{}})
		return
	}

	results, err := h.svc.Retrieve(r.Context(), service.RetrieveInput{
		Query:   req.Query,
		BoardID: req.BoardID,
		Limit:   req.Limit,
		UnitIDs: scope,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*RetrievedChunkResponse, len(results))
	for i, c := range results {
		responses[i] = &RetrievedChunkResponse{
			UnitID:     c.UnitID,
			ChunkIndex: c.ChunkIndex,
			ChunkText:  c.ChunkText,
			Similarity: c.Similarity,
		}
	}

	api.Success(w, http.StatusOK, RetrieveResponse{Results: responses})
}
