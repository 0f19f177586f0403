package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type activityLogRepository struct {
	db *database.DB
}

func NewActivityLogRepository(db *database.DB) activity.Sink {
	return &activityLogRepository{db: db}
}

// Record implements activity.Sink.
func (r *activityLogRepository) Record(ctx context.Context, entry activity.Entry) error {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal activity details: %w", err)
	}

	var resourceID *string
	if entry.ResourceID != "" {
		resourceID = &entry.ResourceID
	}

	query := `
		INSERT INTO activity_logs (id, user_id, action, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := q.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		resourceID,
		details,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	return nil
}
