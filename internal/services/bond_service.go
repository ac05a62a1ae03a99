package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/moex"
	"github.com/bondwatch/bondwatch/internal/portfolio"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MoexAPI is the slice of the exchange client the services consume.
type MoexAPI interface {
	Search(ctx context.Context, query string) ([]moex.SecurityInfo, error)
	Security(ctx context.Context, secidOrISIN string) (*moex.SecurityDetail, error)
	LastPrice(ctx context.Context, secid string) (float64, bool, error)
	Coupons(ctx context.Context, secid string) ([]moex.CouponEvent, error)
	PriceHistory(ctx context.Context, secid string, from, till time.Time) ([]moex.PricePoint, error)
	FirstOpen(ctx context.Context, secid string, from, till time.Time) (float64, bool, error)
	IndexHistory(ctx context.Context, indexSecID string, from, till time.Time) ([]moex.PricePoint, error)
}

type bondService struct {
	bonds   repositories.BondRepository
	coupons repositories.CouponRepository
	prices  repositories.PriceRepository
	api     MoexAPI
	logger  *zap.Logger
}

// NewBondService creates a new bond service
func NewBondService(
	bonds repositories.BondRepository,
	coupons repositories.CouponRepository,
	prices repositories.PriceRepository,
	api MoexAPI,
	logger *zap.Logger,
) BondService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bondService{bonds: bonds, coupons: coupons, prices: prices, api: api, logger: logger}
}

func (s *bondService) List(ctx context.Context) ([]*models.Bond, error) {
	return s.bonds.List(ctx)
}

func (s *bondService) Search(ctx context.Context, query string) ([]moex.SecurityInfo, error) {
	return s.api.Search(ctx, query)
}

func (s *bondService) Add(ctx context.Context, secidOrISIN string) (*models.Bond, error) {
	id := strings.ToUpper(strings.TrimSpace(secidOrISIN))
	if id == "" {
		return nil, fmt.Errorf("empty security id")
	}

	detail, err := s.api.Security(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", id, err)
	}

	bond := bondFromDetail(detail, id)
	if err := bond.Validate(); err != nil {
		return nil, err
	}
	if err := s.bonds.Upsert(ctx, bond); err != nil {
		return nil, err
	}

	// Schedule and history are best-effort: the bond is usable without
	// them and the refresher retries later.
	if err := s.syncCoupons(ctx, bond); err != nil {
		s.logger.Warn("coupon sync failed", zap.String("secid", bond.SecID), zap.Error(err))
	}
	if err := s.syncPriceHistory(ctx, bond); err != nil {
		s.logger.Warn("price history sync failed", zap.String("secid", bond.SecID), zap.Error(err))
	}

	s.logger.Info("bond added", zap.String("secid", bond.SecID), zap.Int("id", bond.ID))
	return bond, nil
}

func bondFromDetail(detail *moex.SecurityDetail, requested string) *models.Bond {
	bond := &models.Bond{SecID: detail.SecID}
	if bond.SecID == "" {
		bond.SecID = requested
	}
	setStr := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	setStr(&bond.ISIN, detail.ISIN)
	setStr(&bond.Name, detail.Name)
	setStr(&bond.Emitent, detail.String("EMITENT_TITLE"))
	setStr(&bond.CouponType, detail.String("COUPONTYPE"))

	currency := portfolio.NormalizeCurrency(detail.FaceUnit)
	setStr(&bond.Currency, currency)
	setStr(&bond.CurrencySymbol, portfolio.CurrencySymbols[currency])

	if detail.LastPriceAbs != nil {
		d := decimal.NewFromFloat(*detail.LastPriceAbs)
		bond.LastPrice = &d
	}
	if detail.FaceValue > 0 {
		d := decimal.NewFromFloat(detail.FaceValue)
		bond.FaceValue = &d
	}
	if f, ok := detail.Float("COUPONPERCENT"); ok {
		d := decimal.NewFromFloat(f)
		bond.Coupon = &d
		display := fmt.Sprintf("%.2f%%", f)
		bond.CouponDisplay = &display
	}
	if f, ok := detail.Float("YIELDTOOFFER"); ok {
		d := decimal.NewFromFloat(f)
		bond.YTM = &d
	} else if f, ok := detail.Float("YIELD"); ok {
		d := decimal.NewFromFloat(f)
		bond.YTM = &d
	}
	if d, ok := parseISSDate(detail.String("MATURITYDATE")); ok {
		bond.MaturityDate = &d
	}
	if d, ok := parseISSDate(detail.String("OFFERDATE")); ok {
		bond.OfferDate = &d
	}
	return bond
}

func parseISSDate(s string) (time.Time, bool) {
	if s == "" || s == "0000-00-00" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func (s *bondService) syncCoupons(ctx context.Context, bond *models.Bond) error {
	events, err := s.api.Coupons(ctx, bond.SecID)
	if err != nil {
		return err
	}
	coupons := make([]*models.Coupon, 0, len(events))
	for _, ev := range events {
		if ev.Value == nil {
			continue
		}
		coupons = append(coupons, &models.Coupon{
			BondID: bond.ID,
			Date:   ev.Date,
			Value:  decimal.NewFromFloat(*ev.Value),
		})
	}
	return s.coupons.ReplaceForBond(ctx, bond.ID, coupons)
}

func (s *bondService) syncPriceHistory(ctx context.Context, bond *models.Bond) error {
	till := time.Now()
	from := till.AddDate(-1, 0, 0)
	points, err := s.api.PriceHistory(ctx, bond.SecID, from, till)
	if err != nil {
		return err
	}
	prices := make([]*models.Price, 0, len(points))
	for _, p := range points {
		prices = append(prices, &models.Price{
			BondID: bond.ID,
			Date:   p.Date,
			Value:  decimal.NewFromFloat(p.Close),
		})
	}
	return s.prices.UpsertBatch(ctx, prices)
}

func (s *bondService) Delete(ctx context.Context, ids []int) (int, error) {
	return s.bonds.DeleteByIDs(ctx, ids)
}

// RefreshPrices walks every stored bond, re-reading its last price and the
// opens of the current day, week, month and year. Individual failures are
// logged and skipped so one dead paper cannot stall the sweep.
func (s *bondService) RefreshPrices(ctx context.Context) error {
	bonds, err := s.bonds.List(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, bond := range bonds {
		if err := ctx.Err(); err != nil {
			return err
		}
		changed := false
		if price, ok, err := s.api.LastPrice(ctx, bond.SecID); err != nil {
			s.logger.Warn("last price refresh failed", zap.String("secid", bond.SecID), zap.Error(err))
		} else if ok {
			d := decimal.NewFromFloat(price)
			bond.LastPrice = &d
			changed = true
		}
		changed = s.refreshOpens(ctx, bond, now) || changed
		if changed {
			if err := s.bonds.Update(ctx, bond); err != nil {
				s.logger.Warn("bond update failed", zap.String("secid", bond.SecID), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *bondService) refreshOpens(ctx context.Context, bond *models.Bond, now time.Time) bool {
	year, month, day := now.Date()
	weekStart := now.AddDate(0, 0, -int((now.Weekday()+6)%7)) // Monday
	targets := []struct {
		dst  **decimal.Decimal
		from time.Time
	}{
		{&bond.DayOpen, time.Date(year, month, day, 0, 0, 0, 0, now.Location())},
		{&bond.WeekOpen, time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, now.Location())},
		{&bond.MonthOpen, time.Date(year, month, 1, 0, 0, 0, 0, now.Location())},
		{&bond.YearOpen, time.Date(year, 1, 1, 0, 0, 0, 0, now.Location())},
	}
	changed := false
	for _, t := range targets {
		open, ok, err := s.api.FirstOpen(ctx, bond.SecID, t.from, now)
		if err != nil {
			s.logger.Debug("open refresh failed", zap.String("secid", bond.SecID), zap.Error(err))
			continue
		}
		if ok {
			d := decimal.NewFromFloat(open)
			*t.dst = &d
			changed = true
		}
	}
	return changed
}
