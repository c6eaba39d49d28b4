package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brightboard/brightboard/internal/api"
	"github.com/brightboard/brightboard/internal/service"
)

// Answerer produces a grounded answer with source attributions
type Answerer interface {
	Answer(ctx context.Context, input service.AnswerInput) (*service.AnswerOutput, error)
}

// GroupResolver expands group ids into the ids of their member units
type GroupResolver interface {
	ResolveUnitIDs(ctx context.Context, boardID string, groupIDs []string) ([]string, error)
}

type ChatHandler struct {
	svc      Answerer
	resolver GroupResolver
}

func NewChatHandler(svc Answerer, resolver GroupResolver) *ChatHandler {
	return &ChatHandler{svc: svc, resolver: resolver}
}

type ChatOptions struct {
	UnitIDs  []string `json:"unit_ids,omitempty"`
	GroupIDs []string `json:"group_ids,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

type ChatRequest struct {
	BoardID string       `json:"board_id"`
	Query   string       `json:"query"`
	Options *ChatOptions `json:"options,omitempty"`
}

type SourceResponse struct {
	UnitID     string  `json:"unit_id"`
	ChunkIndex int     `json:"chunk_index"`
	Relevance  float32 `json:"relevance"`
}

type ChatResponse struct {
	Answer  string            `json:"answer"`
	Sources []*SourceResponse `json:"sources"`
}

// Chat answers a question grounded in the board's content
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
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

	var unitIDs, groupIDs []string
	var limit int
	if req.Options != nil {
		unitIDs = req.Options.UnitIDs
		groupIDs = req.Options.GroupIDs
		limit = req.Options.Limit
	}

	scope, scopeEmpty, err := resolveUnitScope(r.Context(), h.resolver, req.BoardID, unitIDs, groupIDs)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if scopeEmpty {
		api.Success(w, http.StatusOK, ChatResponse{
			Answer:  service.InsufficientContextAnswer,
			Sources: []*SourceResponse{},
		})
		return
	}

	output, err := h.svc.Answer(r.Context(), service.AnswerInput{
		Query:   req.Query,
		BoardID: req.BoardID,
		UnitIDs: scope,
		TopK:    limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]*SourceResponse, len(output.Sources))
	for i, s := range output.Sources {
		sources[i] = &SourceResponse{
			UnitID:     s.UnitID,
			ChunkIndex: s.ChunkIndex,
			Relevance:  s.Relevance,
		}
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Answer:  output.Answer,
		Sources: sources,
	})
}

// resolveUnitScope merges explicit unit ids with the members of the requested
// groups. scopeEmpty reports that the caller asked for a scope that resolves
// to no units at all, which short-circuits retrieval.
func resolveUnitScope(ctx context.Context, resolver GroupResolver, boardID string, unitIDs, groupIDs []string) (scope []string, scopeEmpty bool, err error) {
	if len(groupIDs) == 0 {
		return unitIDs, false, nil
	}

	resolved, err := resolver.ResolveUnitIDs(ctx, boardID, groupIDs)
	if err != nil {
		return nil, false, err
	}

	seen := make(map[string]struct{}, len(unitIDs)+len(resolved))
	for _, id := range unitIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			scope = append(scope, id)
		}
	}
	for _, id := range resolved {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			scope = append(scope, id)
		}
	}

	if len(scope) == 0 {
		return nil, true, nil
	}
	return scope, false, nil
}
