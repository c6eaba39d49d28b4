package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository resolves board-organization groups to flat unit id sets.
// Group membership itself is managed by the board-organization owner; this
// side only reads it to narrow retrieval scope.
type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// ResolveUnitIDs expands group ids into the distinct unit ids they contain,
// scoped to a board. Unknown group ids contribute nothing.
func (r *GroupRepository) ResolveUnitIDs(ctx context.Context, boardID string, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return []string{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT unit_id
		 FROM unit_groups
		 WHERE board_id = $1 AND group_id = ANY($2)
		 ORDER BY unit_id`,
		boardID, groupIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unitIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unitIDs = append(unitIDs, id)
	}

	return unitIDs, rows.Err()
}
