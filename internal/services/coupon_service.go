package services

import (
	"context"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"github.com/shopspring/decimal"
)

type couponService struct {
	coupons repositories.CouponRepository
	trades  repositories.TradeRepository
}

// NewCouponService creates a new coupon service
func NewCouponService(
	coupons repositories.CouponRepository,
	trades repositories.TradeRepository,
) CouponService {
	return &couponService{coupons: coupons, trades: trades}
}

// Schedule joins every stored coupon with the quantity currently held of
// its bond: payout is value times quantity. Bonds without a position show
// a zero payout, the schedule is still useful for planning.
func (s *couponService) Schedule(ctx context.Context) ([]*models.CouponView, error) {
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	trades, err := s.trades.List(ctx)
	if err != nil {
		return nil, err
	}

	qtyByBond := make(map[int]decimal.Decimal)
	for _, t := range trades {
		qtyByBond[t.BondID] = qtyByBond[t.BondID].Add(t.SignedQty())
	}

	today := time.Now()
	views := make([]*models.CouponView, 0, len(coupons))
	for _, c := range coupons {
		qty := qtyByBond[c.BondID]
		view := &models.CouponView{
			BondID: c.BondID,
			Date:   c.Date,
			Value:  c.Value,
			Qty:    qty,
			Payout: c.Value.Mul(qty),
			IsPast: !c.Date.After(today),
		}
		if c.Bond != nil {
			view.SecID = c.Bond.SecID
			if c.Bond.Name != nil {
				view.BondName = *c.Bond.Name
			}
		}
		views = append(views, view)
	}
	return views, nil
}
