package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/bondwatch/bondwatch/internal/errors"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type tradeRepository struct {
	db *db.DB
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(database *db.DB) TradeRepository {
	return &tradeRepository{db: database}
}

func (r *tradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (r *tradeRepository) GetByID(ctx context.Context, id string) (*models.Trade, error) {
	if id == "" {
		return nil, &apperrors.ErrNotFound{Entity: "trade", Key: id}
	}
	var trade models.Trade
	if err := r.db.WithContext(ctx).Preload("Bond").First(&trade, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrNotFound{Entity: "trade", Key: id}
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &trade, nil
}

func (r *tradeRepository) List(ctx context.Context) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.WithContext(ctx).
		Preload("Bond").
		Order("date DESC, created_at DESC").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (r *tradeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Trade{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperrors.ErrNotFound{Entity: "trade", Key: id}
	}
	return nil
}

// DistinctCurrencies returns the distinct, non-ruble currencies of bonds
// that have at least one trade.
func (r *tradeRepository) DistinctCurrencies(ctx context.Context) ([]string, error) {
	var currencies []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT COALESCE(b.currency, 'SUR')
		FROM trades t
		JOIN bonds b ON b.id = t.bond_id
		WHERE COALESCE(b.currency, 'SUR') NOT IN ('SUR', 'RUB')`).
		Scan(&currencies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trade currencies: %w", err)
	}
	return currencies, nil
}
