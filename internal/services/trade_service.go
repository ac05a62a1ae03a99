package services

import (
	"context"
	"fmt"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"go.uber.org/zap"
)

type tradeService struct {
	trades repositories.TradeRepository
	bonds  repositories.BondRepository
	logger *zap.Logger
}

// NewTradeService creates a new trade service
func NewTradeService(
	trades repositories.TradeRepository,
	bonds repositories.BondRepository,
	logger *zap.Logger,
) TradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tradeService{trades: trades, bonds: bonds, logger: logger}
}

func (s *tradeService) Create(ctx context.Context, trade *models.Trade) (*models.Trade, error) {
	if err := trade.Validate(); err != nil {
		return nil, err
	}
	bond, err := s.bonds.GetByID(ctx, trade.BondID)
	if err != nil {
		return nil, fmt.Errorf("trade references unknown bond: %w", err)
	}
	// Trades inherit the bond's currency unless set explicitly.
	if trade.Currency == nil && bond.Currency != nil {
		trade.Currency = bond.Currency
	}
	if err := s.trades.Create(ctx, trade); err != nil {
		return nil, err
	}
	s.logger.Info("trade created",
		zap.String("id", trade.ID), zap.String("secid", bond.SecID))
	return trade, nil
}

func (s *tradeService) List(ctx context.Context) ([]*models.Trade, error) {
	return s.trades.List(ctx)
}

func (s *tradeService) Delete(ctx context.Context, id string) error {
	return s.trades.Delete(ctx, id)
}
