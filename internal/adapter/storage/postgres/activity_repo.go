package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"
)

type activityRepo struct {
	pool Pool
}

// NewActivityRepository creates a PostgreSQL-backed ActivityRepository.
func NewActivityRepository(pool Pool) ports.ActivityRepository {
	return &activityRepo{pool: pool}
}

func (r *activityRepo) Create(ctx context.Context, entry *domain.ActivityLog) error {
	var metaJSON []byte
	if entry.Metadata != nil {
		var err error
		if metaJSON, err = json.Marshal(entry.Metadata); err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs (id, user_id, activity_type, description, metadata, entity_type, entity_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.UserID, string(entry.Type), entry.Description,
		metaJSON, string(entry.EntityType), entry.EntityID, entry.CreatedAt,
	)
	return err
}
