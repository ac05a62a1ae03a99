package services

import (
	"context"
	"fmt"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/portfolio"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"go.uber.org/zap"
)

type fxService struct {
	rates    repositories.FXRateRepository
	trades   repositories.TradeRepository
	provider RateProvider
	logger   *zap.Logger
}

// NewFXService creates a new FX service
func NewFXService(
	rates repositories.FXRateRepository,
	trades repositories.TradeRepository,
	provider RateProvider,
	logger *zap.Logger,
) FXService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fxService{rates: rates, trades: trades, provider: provider, logger: logger}
}

func (s *fxService) List(ctx context.Context) ([]*models.FXRate, error) {
	return s.rates.List(ctx)
}

func (s *fxService) Refresh(ctx context.Context) ([]*models.FXRate, error) {
	currencies, err := s.trades.DistinctCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect currencies: %w", err)
	}
	if len(currencies) == 0 {
		return nil, nil
	}

	fetched, err := s.provider.FetchRates(ctx, currencies)
	if err != nil {
		return nil, err
	}

	var saved []*models.FXRate
	for currency, rate := range fetched {
		row := &models.FXRate{
			Currency: currency,
			Rate:     rate,
			Source:   models.FXSourceCBR,
		}
		if err := s.rates.Upsert(ctx, row); err != nil {
			return nil, err
		}
		saved = append(saved, row)
	}
	s.logger.Info("fx rates refreshed",
		zap.Int("requested", len(currencies)), zap.Int("saved", len(saved)))
	return saved, nil
}

func (s *fxService) RateTable(ctx context.Context) (portfolio.RateTable, error) {
	stored, err := s.rates.List(ctx)
	if err != nil {
		return nil, err
	}
	table := portfolio.RateTable{}
	for _, r := range stored {
		table.Set(r.Currency, r.Rate.InexactFloat64())
	}
	return table, nil
}
