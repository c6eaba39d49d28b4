package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brightboard/brightboard/internal/api"
	"github.com/brightboard/brightboard/internal/domain"
	"github.com/go-chi/chi/v5"
)

// UnitIngestor owns the write path for a content unit's text
type UnitIngestor interface {
	UnitTextAvailable(ctx context.Context, unitID, boardID, text string) (*domain.IngestionJob, error)
	UnitDeleted(ctx context.Context, unitID string) error
}

type UnitHandler struct {
	svc UnitIngestor
}

func NewUnitHandler(svc UnitIngestor) *UnitHandler {
	return &UnitHandler{svc: svc}
}

type PutUnitTextRequest struct {
	BoardID string `json:"board_id"`
	Text    string `json:"text"`
}

type PutUnitTextResponse struct {
	JobID  string `json:"job_id"`
	UnitID string `json:"unit_id"`
	Status string `json:"status"`
}

// PutText records a unit's text and enqueues it for ingestion. Responds 202:
// embedding happens in the background.
func (h *UnitHandler) PutText(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "id")
	if unitID == "" {
		api.Error(w, http.StatusBadRequest, "unit id is required")
		return
	}

	var req PutUnitTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.svc.UnitTextAvailable(r.Context(), unitID, req.BoardID, req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, PutUnitTextResponse{
		JobID:  job.ID,
		UnitID: job.UnitID,
		Status: string(job.Status),
	})
}

// Delete removes a unit's text and embeddings. Idempotent.
func (h *UnitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "id")
	if unitID == "" {
		api.Error(w, http.StatusBadRequest, "unit id is required")
		return
	}

	if err := h.svc.UnitDeleted(r.Context(), unitID); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
