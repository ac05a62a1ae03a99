package models

import (
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
	"github.com/shopspring/decimal"
)

// PortfolioSummary is the single persisted summary row: only the invested
// amount is user-editable, everything else is computed on read.
type PortfolioSummary struct {
	ID        int             `json:"id" gorm:"primaryKey;column:id"`
	Invested  decimal.Decimal `json:"invested" gorm:"column:invested;type:decimal(20,8);not null;default:0"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the PortfolioSummary model
func (PortfolioSummary) TableName() string {
	return "portfolio_summary"
}

// Validate validates the summary data
func (s *PortfolioSummary) Validate() error {
	if s.Invested.IsNegative() {
		return &errors.ErrValidation{Field: "invested", Message: "must be non-negative"}
	}
	return nil
}

// SummaryView is the computed portfolio summary served to the client.
// Ruble figures; trades sum also broken down by trade currency.
type SummaryView struct {
	Invested          decimal.Decimal            `json:"invested"`
	TradesSum         decimal.Decimal            `json:"trades_sum"`
	TradesSumByCur    map[string]decimal.Decimal `json:"trades_sum_by_currency"`
	CouponProfit      decimal.Decimal            `json:"coupon_profit"`
	CurrentValue      decimal.Decimal            `json:"current_value"`
	CurrentValueByCur map[string]decimal.Decimal `json:"current_value_by_currency"`
	TotalValue        decimal.Decimal            `json:"total_value"`
	ProfitPercent     *decimal.Decimal           `json:"profit_percent"`
	FxRatesUsed       map[string]decimal.Decimal `json:"fx_rates_used,omitempty"`
	UnconvertedByCur  map[string]decimal.Decimal `json:"unconverted_by_currency,omitempty"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// PositionView is one trade's computed amount with the derivation that
// produced it and its ruble conversion.
type PositionView struct {
	TradeID      string           `json:"trade_id"`
	BondID       int              `json:"bond_id"`
	SecID        string           `json:"secid"`
	BondName     string           `json:"bond_name,omitempty"`
	Currency     string           `json:"currency"`
	Amount       decimal.Decimal  `json:"amount"`
	ChosenReason string           `json:"chosen_reason"`
	FxRate       *decimal.Decimal `json:"fx_rate"`
	AmountInRub  *decimal.Decimal `json:"amount_in_rub"`
}

// Derivations recorded on PositionView.ChosenReason.
const (
	PositionFromTotalAmount = "total_amount"
	PositionFromBuyPrice    = "buy_price*qty"
	PositionFromLastPrice   = "last_price*qty"
	PositionFromFace        = "last_price%*face*qty"
	PositionUnknown         = "unknown"
)

// WeightRow is one bond's share of the portfolio as aggregated in SQL:
// value = held qty times last price, percent of the overall total.
type WeightRow struct {
	BondID        int             `json:"id"`
	SecID         string          `json:"secid"`
	BondValue     decimal.Decimal `json:"bond_value"`
	TotalQty      decimal.Decimal `json:"total_qty"`
	WeightPercent decimal.Decimal `json:"weight_percent"`
	Currency      string          `json:"currency"`
}

// IndexPoint is one daily close of a bond index.
type IndexPoint struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}
