package services

import (
	"context"
	"strconv"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/portfolio"
	"github.com/bondwatch/bondwatch/internal/repositories"
)

type portfolioService struct {
	bonds  repositories.BondRepository
	trades repositories.TradeRepository
	fx     FXService
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(
	bonds repositories.BondRepository,
	trades repositories.TradeRepository,
	fx FXService,
) PortfolioService {
	return &portfolioService{bonds: bonds, trades: trades, fx: fx}
}

func (s *portfolioService) Weights(ctx context.Context) ([]*models.WeightRow, error) {
	return s.bonds.Weights(ctx)
}

// MergedBonds runs the valuation pipeline over the stored portfolio: bonds
// and SQL weight rows feed the resolver, trades feed the aggregator, the
// stored FX table feeds conversion, and the result comes back sorted by
// weight.
func (s *portfolioService) MergedBonds(ctx context.Context) ([]portfolio.MergedBond, error) {
	bonds, err := s.bonds.List(ctx)
	if err != nil {
		return nil, err
	}
	weightRows, err := s.bonds.Weights(ctx)
	if err != nil {
		return nil, err
	}
	trades, err := s.trades.List(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.fx.RateTable(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]portfolio.BondRecord, 0, len(bonds))
	for _, b := range bonds {
		records = append(records, bondRecord(b))
	}
	// Bonds without a position get no hint at all so the resolver can
	// fall back to their own fields.
	hints := make([]portfolio.WeightHint, 0, len(weightRows))
	for _, w := range weightRows {
		if w.TotalQty.IsZero() && w.BondValue.IsZero() {
			continue
		}
		hints = append(hints, weightHint(w))
	}
	aggregates := portfolio.AggregateTrades(tradeRecords(trades))

	merged := portfolio.ComputeMergedBonds(records, hints, table, nil, aggregates)
	portfolio.SortMerged(merged)
	return merged, nil
}

func bondRecord(b *models.Bond) portfolio.BondRecord {
	rec := portfolio.BondRecord{
		ID:    portfolio.IdentOf(strconv.Itoa(b.ID)),
		SecID: b.SecID,
	}
	if b.ISIN != nil {
		rec.ISIN = *b.ISIN
	}
	if b.Name != nil {
		rec.Name = *b.Name
	}
	if b.Emitent != nil {
		rec.Emitent = *b.Emitent
	}
	if b.Currency != nil {
		rec.Currency = *b.Currency
	}
	if b.CurrencySymbol != nil {
		rec.Symbol = *b.CurrencySymbol
	}
	if b.LastPrice != nil {
		rec.LastPrice = portfolio.N(b.LastPrice.InexactFloat64())
	}
	if b.Coupon != nil {
		rec.Coupon = portfolio.N(b.Coupon.InexactFloat64())
	}
	if b.CouponDisplay != nil {
		rec.CouponDisplay = *b.CouponDisplay
	}
	if b.CouponType != nil {
		rec.CouponType = *b.CouponType
	}
	if b.YTM != nil {
		rec.YTM = portfolio.N(b.YTM.InexactFloat64())
	}
	if b.AkraRating != nil {
		rec.Rating = *b.AkraRating
	} else if b.RaexpertRating != nil {
		rec.Rating = *b.RaexpertRating
	} else if b.NkrRating != nil {
		rec.Rating = *b.NkrRating
	}
	if b.MaturityDate != nil {
		rec.MaturityDate = b.MaturityDate.Format("2006-01-02")
	}
	if b.OfferDate != nil {
		rec.OfferDate = b.OfferDate.Format("2006-01-02")
	}
	if b.Amortization != nil {
		rec.Amortization = *b.Amortization
	}
	if b.DayOpen != nil {
		rec.DayOpen = portfolio.N(b.DayOpen.InexactFloat64())
	}
	if b.WeekOpen != nil {
		rec.WeekOpen = portfolio.N(b.WeekOpen.InexactFloat64())
	}
	if b.MonthOpen != nil {
		rec.MonthOpen = portfolio.N(b.MonthOpen.InexactFloat64())
	}
	if b.YearOpen != nil {
		rec.YearOpen = portfolio.N(b.YearOpen.InexactFloat64())
	}
	return rec
}

func weightHint(w *models.WeightRow) portfolio.WeightHint {
	h := portfolio.WeightHint{
		ID:        portfolio.IdentOf(strconv.Itoa(w.BondID)),
		BondValue: portfolio.N(w.BondValue.InexactFloat64()),
		TotalQty:  portfolio.N(w.TotalQty.InexactFloat64()),
		Currency:  w.Currency,
	}
	// The SQL percent sums native-currency values with no FX conversion,
	// so it rides the last-resort weight field and never overrides a
	// weight computed from converted ruble values.
	if w.WeightPercent.IsPositive() {
		h.Weight = portfolio.N(w.WeightPercent.InexactFloat64())
	}
	return h
}

func tradeRecords(trades []*models.Trade) []portfolio.TradeRecord {
	records := make([]portfolio.TradeRecord, 0, len(trades))
	for _, t := range trades {
		rec := portfolio.TradeRecord{
			ID:     portfolio.IdentOf(t.ID),
			BondID: portfolio.IdentOf(strconv.Itoa(t.BondID)),
		}
		if t.TotalAmount != nil {
			rec.TotalAmount = portfolio.N(t.TotalAmount.InexactFloat64())
		}
		if t.BuyPrice != nil {
			rec.BuyPrice = portfolio.N(t.BuyPrice.InexactFloat64())
		}
		if t.BuyQty != nil {
			rec.BuyQty = portfolio.N(t.BuyQty.InexactFloat64())
		}
		if t.BuyNkd != nil {
			rec.BuyAccrued = portfolio.N(t.BuyNkd.InexactFloat64())
		}
		if t.SellPrice != nil {
			rec.SellPrice = portfolio.N(t.SellPrice.InexactFloat64())
		}
		if t.SellQty != nil {
			rec.SellQty = portfolio.N(t.SellQty.InexactFloat64())
		}
		if t.SellNkd != nil {
			rec.SellAccrued = portfolio.N(t.SellNkd.InexactFloat64())
		}
		if t.Currency != nil {
			rec.Currency = *t.Currency
		}
		records = append(records, rec)
	}
	return records
}
