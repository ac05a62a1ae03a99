package repositories

import (
	"context"
	"fmt"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
)

type eventLogRepository struct {
	db *db.DB
}

// NewEventLogRepository creates a new event log repository
func NewEventLogRepository(database *db.DB) EventLogRepository {
	return &eventLogRepository{db: database}
}

func (r *eventLogRepository) Create(ctx context.Context, entry *models.EventLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create event log: %w", err)
	}
	return nil
}

func (r *eventLogRepository) List(ctx context.Context, limit int) ([]*models.EventLog, error) {
	query := r.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []*models.EventLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list event logs: %w", err)
	}
	return entries, nil
}
