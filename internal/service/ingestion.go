package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingStore defines the vector store surface used by the write path.
type EmbeddingStore interface {
	ReplaceUnit(ctx context.Context, unitID, boardID string, records []domain.EmbeddingRecord) error
	DeleteUnit(ctx context.Context, unitID string) error
}

// UnitTextStore persists raw unit text between trigger and job execution.
type UnitTextStore interface {
	Upsert(ctx context.Context, unitID, boardID, text string) error
	Get(ctx context.Context, unitID string) (*domain.UnitText, error)
	Delete(ctx context.Context, unitID string) error
}

// IngestionJobStore enqueues ingestion jobs for the background worker.
type IngestionJobStore interface {
	Create(ctx context.Context, job *domain.IngestionJob) error
}

// TextArchive keeps an out-of-band copy of raw unit text. Optional.
type TextArchive interface {
	PutUnitText(ctx context.Context, boardID, unitID, text string) error
	DeleteUnitText(ctx context.Context, boardID, unitID string) error
}

// StatusNotifier receives terminal ingestion outcomes so the content unit's
// lifecycle owner can update its status field.
type StatusNotifier interface {
	IngestionCompleted(ctx context.Context, unitID string)
	IngestionFailed(ctx context.Context, unitID, reason string)
}

// LogStatusNotifier is the default notifier when no external owner is wired.
type LogStatusNotifier struct{}

func (LogStatusNotifier) IngestionCompleted(_ context.Context, unitID string) {
	log.Printf("ingestion completed for unit %s", unitID)
}

func (LogStatusNotifier) IngestionFailed(_ context.Context, unitID, reason string) {
	log.Printf("ingestion failed for unit %s: %s", unitID, reason)
}

// IngestionConfig controls the chunk-embed-store write path.
type IngestionConfig struct {
	Chunking         ChunkConfig
	EmbedConcurrency int
}

// DefaultIngestionConfig provides sane defaults for ingestion.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		Chunking:         DefaultChunkConfig(),
		EmbedConcurrency: 4,
	}
}

// IngestionService runs the write path: unit text in, embedding records out.
// Mutations for one unit are serialized through a per-unit lock so a replace
// never interleaves with a concurrent delete of the same unit.
type IngestionService struct {
	client   EmbeddingClient
	store    EmbeddingStore
	texts    UnitTextStore
	jobs     IngestionJobStore
	archive  TextArchive
	cfg      IngestionConfig
	unitMu   sync.Mutex
	unitBusy map[string]*sync.Mutex
}

func NewIngestionService(client EmbeddingClient, store EmbeddingStore, texts UnitTextStore, jobs IngestionJobStore) *IngestionService {
	return NewIngestionServiceWithConfig(client, store, texts, jobs, nil, DefaultIngestionConfig())
}

func NewIngestionServiceWithConfig(
	client EmbeddingClient,
	store EmbeddingStore,
	texts UnitTextStore,
	jobs IngestionJobStore,
	archive TextArchive,
	cfg IngestionConfig,
) *IngestionService {
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 1
	}
	return &IngestionService{
		client:   client,
		store:    store,
		texts:    texts,
		jobs:     jobs,
		archive:  archive,
		cfg:      cfg,
		unitBusy: make(map[string]*sync.Mutex),
	}
}

func (s *IngestionService) lockUnit(unitID string) func() {
	s.unitMu.Lock()
	mu, ok := s.unitBusy[unitID]
	if !ok {
		mu = &sync.Mutex{}
		s.unitBusy[unitID] = mu
	}
	s.unitMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// UnitTextAvailable records the unit's text and enqueues an ingestion job.
// The caller is not blocked on embedding; the background worker picks the
// job up and reports the outcome through the status notifier.
func (s *IngestionService) UnitTextAvailable(ctx context.Context, unitID, boardID, text string) (*domain.IngestionJob, error) {
	if unitID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "unit id is required")
	}
	if boardID == "" {
		return nil, domain.ErrMissingBoardID
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	if err := s.texts.Upsert(ctx, unitID, boardID, text); err != nil {
		return nil, fmt.Errorf("failed to store unit text: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.PutUnitText(ctx, boardID, unitID, text); err != nil {
			// Archive is a convenience copy; ingestion proceeds without it.
			log.Printf("failed to archive text for unit %s: %v", unitID, err)
		}
	}

	job := &domain.IngestionJob{
		ID:        uuid.NewString(),
		UnitID:    unitID,
		BoardID:   boardID,
		Status:    domain.IngestionJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingestion job: %w", err)
	}

	return job, nil
}

// UnitDeleted removes everything stored for the unit. Idempotent: deleting a
// unit that was never ingested is not an error.
func (s *IngestionService) UnitDeleted(ctx context.Context, unitID string) error {
	if unitID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "unit id is required")
	}

	unlock := s.lockUnit(unitID)
	defer unlock()

	var boardID string
	if ut, err := s.texts.Get(ctx, unitID); err == nil {
		boardID = ut.BoardID
	}

	if err := s.store.DeleteUnit(ctx, unitID); err != nil {
		return fmt.Errorf("failed to delete embeddings for unit %s: %w", unitID, err)
	}
	if err := s.texts.Delete(ctx, unitID); err != nil {
		return fmt.Errorf("failed to delete text for unit %s: %w", unitID, err)
	}

	if s.archive != nil && boardID != "" {
		if err := s.archive.DeleteUnitText(ctx, boardID, unitID); err != nil {
			log.Printf("failed to delete archived text for unit %s: %v", unitID, err)
		}
	}

	return nil
}

// IngestUnit runs chunk, embed, replace for one unit. Called by the job
// worker. Nothing is written to the store until every chunk has embedded, so
// a partial embedding failure leaves the unit's previous generation intact.
func (s *IngestionService) IngestUnit(ctx context.Context, unitID string) error {
	unlock := s.lockUnit(unitID)
	defer unlock()

	ut, err := s.texts.Get(ctx, unitID)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestUnit", telemetry.SpanAttributes{
		BoardID:   ut.BoardID,
		UnitID:    unitID,
		Operation: "ingest",
	})
	defer span.End()

	chunks, err := ChunkText(ut.Text, s.cfg.Chunking)
	if err != nil {
		return err
	}

	records := make([]domain.EmbeddingRecord, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedConcurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			vector, err := s.client.GenerateEmbedding(gctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d of unit %s: %w", chunk.Index, unitID, err)
			}
			records[chunk.Index] = domain.EmbeddingRecord{
				UnitID:     unitID,
				BoardID:    ut.BoardID,
				ChunkIndex: chunk.Index,
				ChunkText:  chunk.Text,
				Embedding:  vector,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return err
	}

	if err := s.store.ReplaceUnit(ctx, unitID, ut.BoardID, records); err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to replace embeddings for unit %s: %w", unitID, err)
	}

	return nil
}
