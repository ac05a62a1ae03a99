package models

import (
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
	"github.com/shopspring/decimal"
)

// Trade represents a single buy or sell of a bond. Buy and sell sides are
// both optional; a row may also carry only an explicit total amount.
type Trade struct {
	ID     string     `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	BondID int        `json:"bond_id" gorm:"column:bond_id;not null;index"`
	Bond   *Bond      `json:"bond,omitempty" gorm:"foreignKey:BondID"`
	Date   *time.Time `json:"date" gorm:"column:date;type:date;index"`

	BuyPrice *decimal.Decimal `json:"buy_price" gorm:"column:buy_price;type:decimal(20,8)"`
	BuyQty   *decimal.Decimal `json:"buy_qty" gorm:"column:buy_qty;type:decimal(20,8)"`
	BuyNkd   *decimal.Decimal `json:"buy_nkd" gorm:"column:buy_nkd;type:decimal(20,8)"`
	BuyComm  *decimal.Decimal `json:"buy_commission" gorm:"column:buy_commission;type:decimal(20,8)"`

	SellPrice *decimal.Decimal `json:"sell_price" gorm:"column:sell_price;type:decimal(20,8)"`
	SellQty   *decimal.Decimal `json:"sell_qty" gorm:"column:sell_qty;type:decimal(20,8)"`
	SellNkd   *decimal.Decimal `json:"sell_nkd" gorm:"column:sell_nkd;type:decimal(20,8)"`
	SellComm  *decimal.Decimal `json:"sell_commission" gorm:"column:sell_commission;type:decimal(20,8)"`

	// Explicit settled amount; when present it wins over any derivation.
	TotalAmount *decimal.Decimal `json:"total_amount" gorm:"column:total_amount;type:decimal(20,8)"`

	// Rate to the reporting currency fixed at trade time; nil means
	// convert at the current rate.
	FxRate   *decimal.Decimal `json:"fx_rate" gorm:"column:fx_rate;type:decimal(20,8)"`
	Currency *string          `json:"currency" gorm:"column:currency;type:varchar(20)"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Trade model
func (Trade) TableName() string {
	return "trades"
}

// Validate validates the trade data
func (t *Trade) Validate() error {
	if t.BondID == 0 {
		return &errors.ErrValidation{Field: "bond_id", Message: "bond_id is required"}
	}
	hasBuy := t.BuyQty != nil && !t.BuyQty.IsZero()
	hasSell := t.SellQty != nil && !t.SellQty.IsZero()
	hasAmount := t.TotalAmount != nil
	if !hasBuy && !hasSell && !hasAmount {
		return &errors.ErrValidation{Field: "buy_qty/sell_qty/total_amount", Message: "trade needs a buy quantity, a sell quantity or a total amount"}
	}
	if t.BuyQty != nil && t.BuyQty.IsNegative() {
		return &errors.ErrValidation{Field: "buy_qty", Message: "must be non-negative"}
	}
	if t.SellQty != nil && t.SellQty.IsNegative() {
		return &errors.ErrValidation{Field: "sell_qty", Message: "must be non-negative"}
	}
	if t.FxRate != nil && !t.FxRate.IsPositive() {
		return &errors.ErrValidation{Field: "fx_rate", Message: "must be positive"}
	}
	return nil
}

// SignedQty returns buys minus sells for position arithmetic.
func (t *Trade) SignedQty() decimal.Decimal {
	q := decimal.Zero
	if t.BuyQty != nil {
		q = q.Add(*t.BuyQty)
	}
	if t.SellQty != nil {
		q = q.Sub(*t.SellQty)
	}
	return q
}
