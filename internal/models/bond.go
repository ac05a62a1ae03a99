package models

import (
	"strings"
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
	"github.com/shopspring/decimal"
)

// Bond represents a tracked bond, enriched from the exchange on insert and
// refreshed by the background updater.
type Bond struct {
	ID      int     `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	SecID   string  `json:"secid" gorm:"column:secid;type:varchar(50);uniqueIndex;not null"`
	ISIN    *string `json:"isin" gorm:"column:isin;type:varchar(50)"`
	Name    *string `json:"name" gorm:"column:name;type:varchar(255)"`
	Emitent *string `json:"emitent" gorm:"column:emitent;type:varchar(255);index"`
	Market  *string `json:"market" gorm:"column:market;type:varchar(50);index"`

	Coupon        *decimal.Decimal `json:"coupon" gorm:"column:coupon;type:decimal(20,8)"`
	CouponDisplay *string          `json:"coupon_display" gorm:"column:coupon_display;type:varchar(100)"`
	CouponType    *string          `json:"coupon_type" gorm:"column:coupon_type;type:varchar(50)"`
	MaturityDate  *time.Time       `json:"maturity_date" gorm:"column:maturity_date;type:date;index"`
	OfferDate     *time.Time       `json:"offer_date" gorm:"column:offer_date;type:date"`
	Amortization  *bool            `json:"amortization" gorm:"column:amortization;type:boolean"`

	YTM     *decimal.Decimal `json:"ytm" gorm:"column:ytm;type:decimal(20,8)"`
	YTMDate *time.Time       `json:"ytm_date" gorm:"column:ytm_date;type:date"`

	// Prices are quoted in the bond's own currency, absolute terms
	// (exchange percent-of-face quotes are converted on ingest).
	LastPrice *decimal.Decimal `json:"last_price" gorm:"column:last_price;type:decimal(20,8)"`
	FaceValue *decimal.Decimal `json:"face_value" gorm:"column:face_value;type:decimal(20,8)"`

	DayOpen   *decimal.Decimal `json:"day_open" gorm:"column:day_open;type:decimal(20,8)"`
	WeekOpen  *decimal.Decimal `json:"week_open" gorm:"column:week_open;type:decimal(20,8)"`
	MonthOpen *decimal.Decimal `json:"month_open" gorm:"column:month_open;type:decimal(20,8)"`
	YearOpen  *decimal.Decimal `json:"year_open" gorm:"column:year_open;type:decimal(20,8)"`

	// Agency ratings with outlooks.
	AkraRating       *string `json:"akra_rating" gorm:"column:akra_rating;type:varchar(20)"`
	AkraForecast     *string `json:"akra_forecast" gorm:"column:akra_forecast;type:varchar(50)"`
	RaexpertRating   *string `json:"raexpert_rating" gorm:"column:raexpert_rating;type:varchar(20)"`
	RaexpertForecast *string `json:"raexpert_forecast" gorm:"column:raexpert_forecast;type:varchar(50)"`
	NkrRating        *string `json:"nkr_rating" gorm:"column:nkr_rating;type:varchar(20)"`
	NkrForecast      *string `json:"nkr_forecast" gorm:"column:nkr_forecast;type:varchar(50)"`

	Currency       *string `json:"currency" gorm:"column:currency;type:varchar(20)"`
	CurrencySymbol *string `json:"currency_symbol" gorm:"column:currency_symbol;type:varchar(10)"`

	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Bond model
func (Bond) TableName() string {
	return "bonds"
}

// Validate validates the bond data
func (b *Bond) Validate() error {
	if strings.TrimSpace(b.SecID) == "" {
		return &errors.ErrValidation{Field: "secid", Message: "secid is required"}
	}
	if b.LastPrice != nil && b.LastPrice.IsNegative() {
		return &errors.ErrValidation{Field: "last_price", Message: "must be non-negative"}
	}
	if b.FaceValue != nil && b.FaceValue.IsNegative() {
		return &errors.ErrValidation{Field: "face_value", Message: "must be non-negative"}
	}
	return nil
}
