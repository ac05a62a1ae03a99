package services

import (
	"context"
	"testing"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFXServiceWithRates(t *testing.T, rates map[string]string) FXService {
	t.Helper()
	fxRepo := newStubFXRepo()
	for currency, rate := range rates {
		require.NoError(t, fxRepo.Upsert(context.Background(), &models.FXRate{
			Currency: currency,
			Rate:     decimal.RequireFromString(rate),
			Source:   models.FXSourceManual,
		}))
	}
	return NewFXService(fxRepo, &stubTradeRepo{}, &stubRateProvider{}, nil)
}

func TestPositionsAmountDerivation(t *testing.T) {
	rubBond := &models.Bond{ID: 1, SecID: "SU26240", Currency: strPtr("SUR")}
	pricedBond := &models.Bond{ID: 2, SecID: "RU000A0ZZAA0", Currency: strPtr("SUR"), LastPrice: decPtr(950)}
	percentBond := &models.Bond{ID: 3, SecID: "RU000A0ZZBB0", Currency: strPtr("SUR"), LastPrice: decPtr(95.5), FaceValue: decPtr(1000)}

	tests := []struct {
		name       string
		trade      *models.Trade
		wantAmount string
		wantReason string
	}{
		{
			name: "explicit total wins over everything",
			trade: &models.Trade{
				ID: "t1", BondID: 2, Bond: pricedBond,
				TotalAmount: decPtr(5000),
				BuyPrice:    decPtr(100), BuyQty: decPtr(10),
			},
			wantAmount: "5000",
			wantReason: models.PositionFromTotalAmount,
		},
		{
			name: "buy price times qty plus accrued and commission",
			trade: &models.Trade{
				ID: "t2", BondID: 1, Bond: rubBond,
				BuyPrice: decPtr(100), BuyQty: decPtr(10),
				BuyNkd: decPtr(5), BuyComm: decPtr(2),
			},
			wantAmount: "1007",
			wantReason: models.PositionFromBuyPrice,
		},
		{
			name: "falls back to the bond's last price",
			trade: &models.Trade{
				ID: "t3", BondID: 2, Bond: pricedBond,
				BuyQty: decPtr(2), BuyComm: decPtr(1),
			},
			wantAmount: "1901",
			wantReason: models.PositionFromLastPrice,
		},
		{
			name: "small last price reads as percent of face",
			trade: &models.Trade{
				ID: "t4", BondID: 3, Bond: percentBond,
				BuyQty: decPtr(2),
			},
			wantAmount: "1910",
			wantReason: models.PositionFromFace,
		},
		{
			name: "nothing to derive from",
			trade: &models.Trade{
				ID: "t5", BondID: 1, Bond: rubBond,
				SellNkd: decPtr(3),
			},
			wantAmount: "0",
			wantReason: models.PositionUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades := &stubTradeRepo{trades: []*models.Trade{tt.trade}}
			svc := NewPositionService(trades, newFXServiceWithRates(t, nil))

			positions, err := svc.Positions(context.Background())
			require.NoError(t, err)
			require.Len(t, positions, 1)
			p := positions[0]
			assert.Equal(t, tt.wantReason, p.ChosenReason)
			assert.True(t, p.Amount.Equal(decimal.RequireFromString(tt.wantAmount)),
				"amount = %s, want %s", p.Amount, tt.wantAmount)
		})
	}
}

func TestPositionsConversion(t *testing.T) {
	usdBond := &models.Bond{ID: 1, SecID: "XS0000000001", Currency: strPtr("USD")}
	fx := newFXServiceWithRates(t, map[string]string{"USD": "80"})

	tests := []struct {
		name       string
		trade      *models.Trade
		wantCur    string
		wantRate   string
		wantRub    string
		wantAbsent bool
	}{
		{
			name: "ruble amounts pass through",
			trade: &models.Trade{
				ID: "t1", BondID: 2,
				Bond:        &models.Bond{ID: 2, SecID: "SU26240", Currency: strPtr("SUR")},
				TotalAmount: decPtr(1234),
			},
			wantCur: "SUR",
			wantRub: "1234",
		},
		{
			name: "trade's own fixed rate wins over the table",
			trade: &models.Trade{
				ID: "t2", BondID: 1, Bond: usdBond,
				TotalAmount: decPtr(100), FxRate: decPtr(90),
			},
			wantCur:  "USD",
			wantRate: "90",
			wantRub:  "9000",
		},
		{
			name: "current table rate otherwise",
			trade: &models.Trade{
				ID: "t3", BondID: 1, Bond: usdBond,
				TotalAmount: decPtr(100),
			},
			wantCur:  "USD",
			wantRate: "80",
			wantRub:  "8000",
		},
		{
			name: "unknown currency stays unconverted",
			trade: &models.Trade{
				ID: "t4", BondID: 3,
				Bond:        &models.Bond{ID: 3, SecID: "XS0000000002", Currency: strPtr("GBP")},
				TotalAmount: decPtr(100),
			},
			wantCur:    "GBP",
			wantAbsent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades := &stubTradeRepo{trades: []*models.Trade{tt.trade}}
			svc := NewPositionService(trades, fx)

			positions, err := svc.Positions(context.Background())
			require.NoError(t, err)
			require.Len(t, positions, 1)
			p := positions[0]
			assert.Equal(t, tt.wantCur, p.Currency)

			if tt.wantAbsent {
				assert.Nil(t, p.FxRate)
				assert.Nil(t, p.AmountInRub)
				return
			}
			require.NotNil(t, p.AmountInRub)
			assert.True(t, p.AmountInRub.Equal(decimal.RequireFromString(tt.wantRub)),
				"rub = %s, want %s", p.AmountInRub, tt.wantRub)
			if tt.wantRate == "" {
				assert.Nil(t, p.FxRate)
			} else {
				require.NotNil(t, p.FxRate)
				assert.True(t, p.FxRate.Equal(decimal.RequireFromString(tt.wantRate)))
			}
		})
	}
}

func TestPositionsCurrencyFallsBackToBond(t *testing.T) {
	trade := &models.Trade{
		ID: "t1", BondID: 1,
		Bond:        &models.Bond{ID: 1, SecID: "XS0000000001", Currency: strPtr("cny ")},
		TotalAmount: decPtr(10),
	}
	svc := NewPositionService(&stubTradeRepo{trades: []*models.Trade{trade}}, newFXServiceWithRates(t, nil))

	positions, err := svc.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "CNY", positions[0].Currency)
	assert.Equal(t, "XS0000000001", positions[0].SecID)
}
