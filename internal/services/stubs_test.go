package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/moex"
	"github.com/shopspring/decimal"
)

// In-memory repository stubs so service tests run without a database.

type stubBondRepo struct {
	bonds      []*models.Bond
	weightRows []*models.WeightRow
	nextID     int
	updated    []*models.Bond
}

func (r *stubBondRepo) Upsert(ctx context.Context, bond *models.Bond) error {
	for _, b := range r.bonds {
		if b.SecID == bond.SecID {
			bond.ID = b.ID
			*b = *bond
			return nil
		}
	}
	r.nextID++
	bond.ID = r.nextID
	r.bonds = append(r.bonds, bond)
	return nil
}

func (r *stubBondRepo) GetByID(ctx context.Context, id int) (*models.Bond, error) {
	for _, b := range r.bonds {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("bond %d not found", id)
}

func (r *stubBondRepo) GetBySecID(ctx context.Context, secid string) (*models.Bond, error) {
	for _, b := range r.bonds {
		if b.SecID == secid {
			return b, nil
		}
	}
	return nil, fmt.Errorf("bond %s not found", secid)
}

func (r *stubBondRepo) List(ctx context.Context) ([]*models.Bond, error) {
	return r.bonds, nil
}

func (r *stubBondRepo) Update(ctx context.Context, bond *models.Bond) error {
	r.updated = append(r.updated, bond)
	return nil
}

func (r *stubBondRepo) DeleteByIDs(ctx context.Context, ids []int) (int, error) {
	deleted := 0
	var kept []*models.Bond
	for _, b := range r.bonds {
		drop := false
		for _, id := range ids {
			if b.ID == id {
				drop = true
				break
			}
		}
		if drop {
			deleted++
		} else {
			kept = append(kept, b)
		}
	}
	r.bonds = kept
	return deleted, nil
}

func (r *stubBondRepo) Weights(ctx context.Context) ([]*models.WeightRow, error) {
	return r.weightRows, nil
}

type stubTradeRepo struct {
	trades     []*models.Trade
	currencies []string
}

func (r *stubTradeRepo) Create(ctx context.Context, trade *models.Trade) error {
	if trade.ID == "" {
		trade.ID = fmt.Sprintf("trade-%d", len(r.trades)+1)
	}
	r.trades = append(r.trades, trade)
	return nil
}

func (r *stubTradeRepo) GetByID(ctx context.Context, id string) (*models.Trade, error) {
	for _, t := range r.trades {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("trade %s not found", id)
}

func (r *stubTradeRepo) List(ctx context.Context) ([]*models.Trade, error) {
	return r.trades, nil
}

func (r *stubTradeRepo) Delete(ctx context.Context, id string) error {
	for i, t := range r.trades {
		if t.ID == id {
			r.trades = append(r.trades[:i], r.trades[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("trade %s not found", id)
}

func (r *stubTradeRepo) DistinctCurrencies(ctx context.Context) ([]string, error) {
	return r.currencies, nil
}

type stubCouponRepo struct {
	coupons []*models.Coupon
	profit  decimal.Decimal
}

func (r *stubCouponRepo) ReplaceForBond(ctx context.Context, bondID int, coupons []*models.Coupon) error {
	var kept []*models.Coupon
	for _, c := range r.coupons {
		if c.BondID != bondID {
			kept = append(kept, c)
		}
	}
	for _, c := range coupons {
		c.BondID = bondID
	}
	r.coupons = append(kept, coupons...)
	return nil
}

func (r *stubCouponRepo) List(ctx context.Context) ([]*models.Coupon, error) {
	return r.coupons, nil
}

func (r *stubCouponRepo) Profit(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	return r.profit, nil
}

type stubFXRepo struct {
	rates map[string]*models.FXRate
}

func newStubFXRepo() *stubFXRepo {
	return &stubFXRepo{rates: map[string]*models.FXRate{}}
}

func (r *stubFXRepo) Upsert(ctx context.Context, rate *models.FXRate) error {
	r.rates[rate.Currency] = rate
	return nil
}

func (r *stubFXRepo) GetByCurrency(ctx context.Context, currency string) (*models.FXRate, error) {
	rate, ok := r.rates[currency]
	if !ok {
		return nil, fmt.Errorf("rate %s not found", currency)
	}
	return rate, nil
}

func (r *stubFXRepo) List(ctx context.Context) ([]*models.FXRate, error) {
	var out []*models.FXRate
	for _, rate := range r.rates {
		out = append(out, rate)
	}
	return out, nil
}

type stubPriceRepo struct {
	prices []*models.Price
}

func (r *stubPriceRepo) UpsertBatch(ctx context.Context, prices []*models.Price) error {
	r.prices = append(r.prices, prices...)
	return nil
}

func (r *stubPriceRepo) ListByBond(ctx context.Context, bondID int) ([]*models.Price, error) {
	var out []*models.Price
	for _, p := range r.prices {
		if p.BondID == bondID {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubLogRepo struct {
	entries []*models.EventLog
}

func (r *stubLogRepo) Create(ctx context.Context, entry *models.EventLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubLogRepo) List(ctx context.Context, limit int) ([]*models.EventLog, error) {
	if limit > 0 && limit < len(r.entries) {
		return r.entries[:limit], nil
	}
	return r.entries, nil
}

type stubSummaryRepo struct {
	row models.PortfolioSummary
}

func (r *stubSummaryRepo) Get(ctx context.Context) (*models.PortfolioSummary, error) {
	row := r.row
	return &row, nil
}

func (r *stubSummaryRepo) SetInvested(ctx context.Context, invested decimal.Decimal) (*models.PortfolioSummary, error) {
	r.row.Invested = invested
	row := r.row
	return &row, nil
}

type stubRateProvider struct {
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func (p *stubRateProvider) FetchRates(ctx context.Context, currencies []string) (map[string]decimal.Decimal, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.rates, nil
}

type stubMoexAPI struct {
	detail    *moex.SecurityDetail
	search    []moex.SecurityInfo
	coupons   []moex.CouponEvent
	history   []moex.PricePoint
	index     []moex.PricePoint
	lastPrice float64
	lastOK    bool
	firstOpen float64
	openOK    bool
}

func (a *stubMoexAPI) Search(ctx context.Context, query string) ([]moex.SecurityInfo, error) {
	return a.search, nil
}

func (a *stubMoexAPI) Security(ctx context.Context, secidOrISIN string) (*moex.SecurityDetail, error) {
	if a.detail == nil {
		return nil, fmt.Errorf("security %s not found", secidOrISIN)
	}
	return a.detail, nil
}

func (a *stubMoexAPI) LastPrice(ctx context.Context, secid string) (float64, bool, error) {
	return a.lastPrice, a.lastOK, nil
}

func (a *stubMoexAPI) Coupons(ctx context.Context, secid string) ([]moex.CouponEvent, error) {
	return a.coupons, nil
}

func (a *stubMoexAPI) PriceHistory(ctx context.Context, secid string, from, till time.Time) ([]moex.PricePoint, error) {
	return a.history, nil
}

func (a *stubMoexAPI) FirstOpen(ctx context.Context, secid string, from, till time.Time) (float64, bool, error) {
	return a.firstOpen, a.openOK, nil
}

func (a *stubMoexAPI) IndexHistory(ctx context.Context, indexSecID string, from, till time.Time) ([]moex.PricePoint, error) {
	return a.index, nil
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func strPtr(s string) *string { return &s }
