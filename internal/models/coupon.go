package models

import (
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
	"github.com/shopspring/decimal"
)

// Coupon is one scheduled coupon payment of a bond, per unit of face.
type Coupon struct {
	ID     int             `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	BondID int             `json:"bond_id" gorm:"column:bond_id;not null;uniqueIndex:idx_coupons_bond_date"`
	Bond   *Bond           `json:"bond,omitempty" gorm:"foreignKey:BondID"`
	Date   time.Time       `json:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_coupons_bond_date"`
	Value  decimal.Decimal `json:"value" gorm:"column:value;type:decimal(20,8);not null"`
}

// TableName returns the table name for the Coupon model
func (Coupon) TableName() string {
	return "coupons"
}

// Validate validates the coupon data
func (c *Coupon) Validate() error {
	if c.BondID == 0 {
		return &errors.ErrValidation{Field: "bond_id", Message: "bond_id is required"}
	}
	if c.Date.IsZero() {
		return &errors.ErrValidation{Field: "date", Message: "date is required"}
	}
	if c.Value.IsNegative() {
		return &errors.ErrValidation{Field: "value", Message: "must be non-negative"}
	}
	return nil
}

// CouponView is a schedule row as served to the client: the payment joined
// with the held quantity into an expected payout.
type CouponView struct {
	BondID   int             `json:"bond_id"`
	SecID    string          `json:"secid"`
	BondName string          `json:"bond_name,omitempty"`
	Date     time.Time       `json:"date"`
	Value    decimal.Decimal `json:"value"`
	Qty      decimal.Decimal `json:"qty"`
	Payout   decimal.Decimal `json:"payout"`
	IsPast   bool            `json:"is_past"`
}
