package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestTradeValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		trade       *Trade
		expectError bool
	}{
		{
			name: "valid buy",
			trade: &Trade{
				BondID:   1,
				Date:     &now,
				BuyPrice: dec(1010.5),
				BuyQty:   dec(10),
				BuyNkd:   dec(12.3),
			},
			expectError: false,
		},
		{
			name: "valid sell",
			trade: &Trade{
				BondID:    1,
				SellPrice: dec(990),
				SellQty:   dec(5),
			},
			expectError: false,
		},
		{
			name:        "valid amount-only row",
			trade:       &Trade{BondID: 2, TotalAmount: dec(25000)},
			expectError: false,
		},
		{
			name:        "missing bond",
			trade:       &Trade{BuyQty: dec(1)},
			expectError: true,
		},
		{
			name:        "no quantities and no amount",
			trade:       &Trade{BondID: 1},
			expectError: true,
		},
		{
			name:        "negative buy qty",
			trade:       &Trade{BondID: 1, BuyQty: dec(-3)},
			expectError: true,
		},
		{
			name:        "zero fx rate",
			trade:       &Trade{BondID: 1, BuyQty: dec(1), FxRate: dec(0)},
			expectError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trade.Validate()
			if tt.expectError && err == nil {
				t.Error("expected validation error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTradeSignedQty(t *testing.T) {
	tr := &Trade{BondID: 1, BuyQty: dec(10), SellQty: dec(4)}
	if got := tr.SignedQty(); !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("SignedQty = %s, want 6", got)
	}
	sell := &Trade{BondID: 1, SellQty: dec(2)}
	if got := sell.SignedQty(); !got.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("SignedQty = %s, want -2", got)
	}
}

func TestBondValidate(t *testing.T) {
	b := &Bond{SecID: "SU26240RMFS2"}
	if err := b.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Bond{SecID: "  "}).Validate(); err == nil {
		t.Error("blank secid must fail")
	}
	neg := &Bond{SecID: "X", LastPrice: dec(-1)}
	if err := neg.Validate(); err == nil {
		t.Error("negative last_price must fail")
	}
}

func TestFXRateValidate(t *testing.T) {
	ok := &FXRate{Currency: "USD", Rate: decimal.NewFromFloat(80.5), Source: FXSourceCBR}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&FXRate{Currency: "USD"}).Validate(); err == nil {
		t.Error("zero rate must fail")
	}
	if err := (&FXRate{Rate: decimal.NewFromInt(1)}).Validate(); err == nil {
		t.Error("missing currency must fail")
	}
}
