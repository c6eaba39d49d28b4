package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitTextRepository stores the raw text delivered for each content unit so
// ingestion jobs can be retried without asking the lifecycle owner again.
type UnitTextRepository struct {
	db dbtx
}

func NewUnitTextRepository(pool *pgxpool.Pool) *UnitTextRepository {
	return &UnitTextRepository{db: pool}
}

func NewUnitTextRepositoryWithTx(tx pgx.Tx) *UnitTextRepository {
	return &UnitTextRepository{db: tx}
}

// Upsert replaces the stored text for a unit.
func (r *UnitTextRepository) Upsert(ctx context.Context, unitID, boardID, text string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO unit_texts (unit_id, board_id, text, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (unit_id) DO UPDATE SET board_id = $2, text = $3, updated_at = $4`,
		unitID, boardID, text, time.Now().UTC(),
	)
	return err
}

// Get returns the stored text for a unit.
func (r *UnitTextRepository) Get(ctx context.Context, unitID string) (*domain.UnitText, error) {
	var ut domain.UnitText
	err := r.db.QueryRow(ctx,
		`SELECT unit_id, board_id, text, updated_at FROM unit_texts WHERE unit_id = $1`,
		unitID,
	).Scan(&ut.UnitID, &ut.BoardID, &ut.Text, &ut.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnitTextNotFound
		}
		return nil, err
	}
	return &ut, nil
}

// Delete removes the stored text for a unit; idempotent.
func (r *UnitTextRepository) Delete(ctx context.Context, unitID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM unit_texts WHERE unit_id = $1`, unitID)
	return err
}
