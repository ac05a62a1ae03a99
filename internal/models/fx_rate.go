package models

import (
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
	"github.com/shopspring/decimal"
)

// FXRate is the stored rate of one currency to the reporting ruble, already
// normalized per single unit (source nominals divided out on ingest).
type FXRate struct {
	Currency  string          `json:"currency" gorm:"primaryKey;column:currency;type:varchar(20)"`
	Rate      decimal.Decimal `json:"rate" gorm:"column:rate;type:decimal(20,8);not null"`
	Source    string          `json:"source" gorm:"column:source;type:varchar(50)"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the FXRate model
func (FXRate) TableName() string {
	return "fx_rates"
}

// Common FX sources
const (
	FXSourceCBR    = "cbr"
	FXSourceManual = "manual"
)

// Validate validates the FX rate data
func (fx *FXRate) Validate() error {
	if fx.Currency == "" {
		return &errors.ErrValidation{Field: "currency", Message: "currency is required"}
	}
	if !fx.Rate.IsPositive() {
		return &errors.ErrValidation{Field: "rate", Message: "must be positive"}
	}
	return nil
}
