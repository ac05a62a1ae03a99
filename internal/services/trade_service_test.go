package services

import (
	"context"
	"testing"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeCreateInheritsBondCurrency(t *testing.T) {
	bonds := &stubBondRepo{bonds: []*models.Bond{
		{ID: 1, SecID: "XS0000000001", Currency: strPtr("USD")},
	}}
	trades := &stubTradeRepo{}
	svc := NewTradeService(trades, bonds, nil)

	created, err := svc.Create(context.Background(), &models.Trade{
		BondID: 1, BuyPrice: decPtr(98), BuyQty: decPtr(5),
	})
	require.NoError(t, err)
	require.NotNil(t, created.Currency)
	assert.Equal(t, "USD", *created.Currency)
	assert.Len(t, trades.trades, 1)
}

func TestTradeCreateKeepsExplicitCurrency(t *testing.T) {
	bonds := &stubBondRepo{bonds: []*models.Bond{
		{ID: 1, SecID: "XS0000000001", Currency: strPtr("USD")},
	}}
	svc := NewTradeService(&stubTradeRepo{}, bonds, nil)

	created, err := svc.Create(context.Background(), &models.Trade{
		BondID: 1, BuyQty: decPtr(5), Currency: strPtr("CNY"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CNY", *created.Currency)
}

func TestTradeCreateRejectsInvalid(t *testing.T) {
	bonds := &stubBondRepo{bonds: []*models.Bond{{ID: 1, SecID: "SU26240"}}}
	svc := NewTradeService(&stubTradeRepo{}, bonds, nil)

	// No quantity and no amount.
	_, err := svc.Create(context.Background(), &models.Trade{BondID: 1})
	require.Error(t, err)

	// References a bond that does not exist.
	_, err = svc.Create(context.Background(), &models.Trade{BondID: 99, BuyQty: decPtr(1)})
	require.Error(t, err)
}
