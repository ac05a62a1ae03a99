package models

import (
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
	"github.com/shopspring/decimal"
)

// Price is one point of a bond's daily close history.
type Price struct {
	ID     int             `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	BondID int             `json:"bond_id" gorm:"column:bond_id;not null;uniqueIndex:idx_prices_bond_date"`
	Date   time.Time       `json:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_prices_bond_date"`
	Value  decimal.Decimal `json:"value" gorm:"column:value;type:decimal(20,8);not null"`
}

// TableName returns the table name for the Price model
func (Price) TableName() string {
	return "prices"
}

// Validate validates the price point
func (p *Price) Validate() error {
	if p.BondID == 0 {
		return &errors.ErrValidation{Field: "bond_id", Message: "bond_id is required"}
	}
	if p.Date.IsZero() {
		return &errors.ErrValidation{Field: "date", Message: "date is required"}
	}
	if p.Value.IsNegative() {
		return &errors.ErrValidation{Field: "value", Message: "must be non-negative"}
	}
	return nil
}
