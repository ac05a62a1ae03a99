package repositories

import (
	"context"
	"fmt"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"gorm.io/gorm/clause"
)

type priceRepository struct {
	db *db.DB
}

// NewPriceRepository creates a new price history repository
func NewPriceRepository(database *db.DB) PriceRepository {
	return &priceRepository{db: database}
}

func (r *priceRepository) UpsertBatch(ctx context.Context, prices []*models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bond_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(prices).Error
	if err != nil {
		return fmt.Errorf("failed to upsert prices: %w", err)
	}
	return nil
}

func (r *priceRepository) ListByBond(ctx context.Context, bondID int) ([]*models.Price, error) {
	var prices []*models.Price
	err := r.db.WithContext(ctx).
		Where("bond_id = ?", bondID).
		Order("date").
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prices for bond %d: %w", bondID, err)
	}
	return prices, nil
}
