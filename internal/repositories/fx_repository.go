package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type fxRateRepository struct {
	db *db.DB
}

// NewFXRateRepository creates a new FX rate repository
func NewFXRateRepository(database *db.DB) FXRateRepository {
	return &fxRateRepository{db: database}
}

func (r *fxRateRepository) Upsert(ctx context.Context, rate *models.FXRate) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "source", "updated_at"}),
	}).Create(rate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert fx rate %s: %w", rate.Currency, err)
	}
	return nil
}

func (r *fxRateRepository) GetByCurrency(ctx context.Context, currency string) (*models.FXRate, error) {
	var rate models.FXRate
	if err := r.db.WithContext(ctx).First(&rate, "currency = ?", currency).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fx rate not found: %s", currency)
		}
		return nil, fmt.Errorf("failed to get fx rate: %w", err)
	}
	return &rate, nil
}

func (r *fxRateRepository) List(ctx context.Context) ([]*models.FXRate, error) {
	var rates []*models.FXRate
	if err := r.db.WithContext(ctx).Order("currency").Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("failed to list fx rates: %w", err)
	}
	return rates, nil
}
