package repositories

import (
	"context"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
)

// BondRepository defines the interface for bond data operations
type BondRepository interface {
	Upsert(ctx context.Context, bond *models.Bond) error
	GetByID(ctx context.Context, id int) (*models.Bond, error)
	GetBySecID(ctx context.Context, secid string) (*models.Bond, error)
	List(ctx context.Context) ([]*models.Bond, error)
	Update(ctx context.Context, bond *models.Bond) error
	DeleteByIDs(ctx context.Context, ids []int) (int, error)
	// Weights aggregates held quantity and value per bond from the trades
	// table in SQL.
	Weights(ctx context.Context) ([]*models.WeightRow, error)
}

// TradeRepository defines the interface for trade data operations
type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
	GetByID(ctx context.Context, id string) (*models.Trade, error)
	List(ctx context.Context) ([]*models.Trade, error)
	Delete(ctx context.Context, id string) error
	// DistinctCurrencies lists the currencies of all traded bonds, the FX
	// refresher's working set.
	DistinctCurrencies(ctx context.Context) ([]string, error)
}

// CouponRepository defines the interface for coupon schedule operations
type CouponRepository interface {
	ReplaceForBond(ctx context.Context, bondID int, coupons []*models.Coupon) error
	List(ctx context.Context) ([]*models.Coupon, error)
	// Profit sums received coupons weighted by the quantity bought before
	// each payment, up to asOf.
	Profit(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
}

// FXRateRepository defines the interface for stored FX rate operations
type FXRateRepository interface {
	Upsert(ctx context.Context, rate *models.FXRate) error
	GetByCurrency(ctx context.Context, currency string) (*models.FXRate, error)
	List(ctx context.Context) ([]*models.FXRate, error)
}

// PriceRepository defines the interface for bond price history operations
type PriceRepository interface {
	UpsertBatch(ctx context.Context, prices []*models.Price) error
	ListByBond(ctx context.Context, bondID int) ([]*models.Price, error)
}

// EventLogRepository defines the interface for event log operations
type EventLogRepository interface {
	Create(ctx context.Context, entry *models.EventLog) error
	List(ctx context.Context, limit int) ([]*models.EventLog, error)
}

// SummaryRepository defines the interface for the persisted summary row
type SummaryRepository interface {
	Get(ctx context.Context) (*models.PortfolioSummary, error)
	SetInvested(ctx context.Context, invested decimal.Decimal) (*models.PortfolioSummary, error)
}
