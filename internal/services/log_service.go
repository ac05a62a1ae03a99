package services

import (
	"context"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/repositories"
)

type logService struct {
	logs repositories.EventLogRepository
}

// NewLogService creates a new event log service
func NewLogService(logs repositories.EventLogRepository) LogService {
	return &logService{logs: logs}
}

func (s *logService) Log(ctx context.Context, message string) error {
	entry := &models.EventLog{Message: message}
	if err := entry.Validate(); err != nil {
		return err
	}
	return s.logs.Create(ctx, entry)
}

func (s *logService) List(ctx context.Context, limit int) ([]*models.EventLog, error) {
	return s.logs.List(ctx, limit)
}
