package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/service"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3
)

// IngestionJobRepository defines the interface for ingestion job persistence
type IngestionJobRepository interface {
	// ClaimPending retrieves and claims pending ingestion jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestionJob, error)

	// UpdateStatus updates the status of an ingestion job
	UpdateStatus(ctx context.Context, id string, status domain.IngestionJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// Ingestor runs the chunk-embed-store pipeline for one unit
type Ingestor interface {
	IngestUnit(ctx context.Context, unitID string) error
}

// IngestionWorker processes ingestion jobs and reports terminal outcomes to
// the content unit's lifecycle owner.
type IngestionWorker struct {
	repo     IngestionJobRepository
	ingestor Ingestor
	notifier service.StatusNotifier
}

// NewIngestionWorker creates a new IngestionWorker instance
func NewIngestionWorker(repo IngestionJobRepository, ingestor Ingestor, notifier service.StatusNotifier) *IngestionWorker {
	if notifier == nil {
		notifier = service.LogStatusNotifier{}
	}
	return &IngestionWorker{
		repo:     repo,
		ingestor: ingestor,
		notifier: notifier,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestionWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("processing %d pending ingestion jobs", len(jobs))

	// A failed job must not block other units' jobs.
	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestionWorker) processJob(ctx context.Context, job *domain.IngestionJob) error {
	log.Printf("processing job %s for unit %s (board %s)", job.ID, job.UnitID, job.BoardID)

	if err := w.ingestor.IngestUnit(ctx, job.UnitID); err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	w.notifier.IngestionCompleted(ctx, job.UnitID)
	log.Printf("job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic. The unit's
// embedding set stays in its previous fully-consistent generation until a
// full re-run succeeds.
func (w *IngestionWorker) handleJobFailure(ctx context.Context, job *domain.IngestionJob, jobErr error) error {
	log.Printf("job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		w.notifier.IngestionFailed(ctx, job.UnitID, errMsg)
		return nil
	}

	log.Printf("job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
