package services

import (
	"context"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/moex"
	"github.com/bondwatch/bondwatch/internal/portfolio"
	"github.com/shopspring/decimal"
)

// BondService defines the interface for bond catalog operations
type BondService interface {
	List(ctx context.Context) ([]*models.Bond, error)
	Search(ctx context.Context, query string) ([]moex.SecurityInfo, error)
	// Add fetches a bond from the exchange by secid or ISIN, stores it and
	// pulls its coupon schedule and price history.
	Add(ctx context.Context, secidOrISIN string) (*models.Bond, error)
	Delete(ctx context.Context, ids []int) (int, error)
	// RefreshPrices re-reads last prices and period opens for every stored
	// bond.
	RefreshPrices(ctx context.Context) error
}

// TradeService defines the interface for trade operations
type TradeService interface {
	Create(ctx context.Context, trade *models.Trade) (*models.Trade, error)
	List(ctx context.Context) ([]*models.Trade, error)
	Delete(ctx context.Context, id string) error
}

// RateProvider fetches reporting-currency rates from an external source.
type RateProvider interface {
	FetchRates(ctx context.Context, currencies []string) (map[string]decimal.Decimal, error)
}

// FXService defines the interface for FX rate operations
type FXService interface {
	List(ctx context.Context) ([]*models.FXRate, error)
	// Refresh pulls fresh rates for every currency the portfolio touches
	// and stores them.
	Refresh(ctx context.Context) ([]*models.FXRate, error)
	// RateTable snapshots the stored rates into the lookup table the
	// valuation pipeline consumes.
	RateTable(ctx context.Context) (portfolio.RateTable, error)
}

// CouponService defines the interface for the coupon schedule
type CouponService interface {
	Schedule(ctx context.Context) ([]*models.CouponView, error)
}

// PositionService defines the interface for per-trade position amounts
type PositionService interface {
	Positions(ctx context.Context) ([]*models.PositionView, error)
}

// SummaryService defines the interface for the portfolio summary
type SummaryService interface {
	Summary(ctx context.Context) (*models.SummaryView, error)
	SetInvested(ctx context.Context, invested decimal.Decimal) (*models.SummaryView, error)
}

// PortfolioService defines the interface for the merged dashboard view
type PortfolioService interface {
	Weights(ctx context.Context) ([]*models.WeightRow, error)
	MergedBonds(ctx context.Context) ([]portfolio.MergedBond, error)
}

// IndexService defines the interface for bond index history
type IndexService interface {
	History(ctx context.Context, from, till time.Time) ([]models.IndexPoint, error)
}

// LogService defines the interface for the persisted event log
type LogService interface {
	Log(ctx context.Context, message string) error
	List(ctx context.Context, limit int) ([]*models.EventLog, error)
}
