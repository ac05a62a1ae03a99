package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The summary table holds a single row.
const summaryRowID = 1

type summaryRepository struct {
	db *db.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(database *db.DB) SummaryRepository {
	return &summaryRepository{db: database}
}

func (r *summaryRepository) Get(ctx context.Context) (*models.PortfolioSummary, error) {
	var summary models.PortfolioSummary
	err := r.db.WithContext(ctx).First(&summary, "id = ?", summaryRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		summary = models.PortfolioSummary{ID: summaryRowID, Invested: decimal.Zero}
		if err := r.db.WithContext(ctx).Create(&summary).Error; err != nil {
			return nil, fmt.Errorf("failed to seed summary row: %w", err)
		}
		return &summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

func (r *summaryRepository) SetInvested(ctx context.Context, invested decimal.Decimal) (*models.PortfolioSummary, error) {
	summary, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	summary.Invested = invested
	if err := r.db.WithContext(ctx).Save(summary).Error; err != nil {
		return nil, fmt.Errorf("failed to update invested: %w", err)
	}
	return summary, nil
}
