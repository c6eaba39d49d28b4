package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/brightboard/brightboard/internal/api"
	"github.com/brightboard/brightboard/internal/domain"
	"github.com/go-chi/chi/v5"
)

// IngestionJobGetter looks up ingestion jobs by id
type IngestionJobGetter interface {
	GetByID(ctx context.Context, id string) (*domain.IngestionJob, error)
}

type IngestionHandler struct {
	jobs IngestionJobGetter
}

func NewIngestionHandler(jobs IngestionJobGetter) *IngestionHandler {
	return &IngestionHandler{jobs: jobs}
}

type IngestionJobResponse struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	BoardID     string `json:"board_id"`
	Status      string `json:"status"`
	Retries     int32  `json:"retries"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

// Get returns the status of one ingestion job
func (h *IngestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "ingestion id is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := IngestionJobResponse{
		ID:        job.ID,
		UnitID:    job.UnitID,
		BoardID:   job.BoardID,
		Status:    string(job.Status),
		Retries:   job.Retries,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if job.ProcessedAt != nil {
		resp.ProcessedAt = job.ProcessedAt.UTC().Format(time.RFC3339Nano)
	}

	api.Success(w, http.StatusOK, resp)
}
