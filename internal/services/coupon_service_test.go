package services

import (
	"context"
	"testing"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponSchedule(t *testing.T) {
	bond := &models.Bond{ID: 1, SecID: "SU26240", Name: strPtr("ОФЗ 26240")}
	past := time.Now().AddDate(0, 0, -30)
	future := time.Now().AddDate(0, 0, 30)

	coupons := &stubCouponRepo{coupons: []*models.Coupon{
		{ID: 1, BondID: 1, Bond: bond, Date: past, Value: decimal.RequireFromString("34.90")},
		{ID: 2, BondID: 1, Bond: bond, Date: future, Value: decimal.RequireFromString("34.90")},
		{ID: 3, BondID: 2, Date: future, Value: decimal.RequireFromString("10")},
	}}
	trades := &stubTradeRepo{trades: []*models.Trade{
		{ID: "t1", BondID: 1, BuyQty: decPtr(10)},
		{ID: "t2", BondID: 1, SellQty: decPtr(4)},
	}}

	svc := NewCouponService(coupons, trades)
	views, err := svc.Schedule(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)

	// Held quantity is buys minus sells.
	assert.True(t, views[0].Qty.Equal(decimal.RequireFromString("6")))
	assert.True(t, views[0].Payout.Equal(decimal.RequireFromString("209.4")),
		"payout = %s", views[0].Payout)
	assert.True(t, views[0].IsPast)
	assert.Equal(t, "SU26240", views[0].SecID)
	assert.Equal(t, "ОФЗ 26240", views[0].BondName)

	assert.False(t, views[1].IsPast)

	// No position in bond 2, the payment still shows with a zero payout.
	assert.True(t, views[2].Qty.IsZero())
	assert.True(t, views[2].Payout.IsZero())
}
