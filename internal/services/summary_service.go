package services

import (
	"context"
	"time"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/portfolio"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"github.com/shopspring/decimal"
)

type summaryService struct {
	summary   repositories.SummaryRepository
	coupons   repositories.CouponRepository
	positions PositionService
	trades    repositories.TradeRepository
	fx        FXService
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	summary repositories.SummaryRepository,
	coupons repositories.CouponRepository,
	positions PositionService,
	trades repositories.TradeRepository,
	fx FXService,
) SummaryService {
	return &summaryService{
		summary:   summary,
		coupons:   coupons,
		positions: positions,
		trades:    trades,
		fx:        fx,
	}
}

// Summary assembles the dashboard header: the editable invested amount,
// what the trades actually cost (by currency and in rubles), coupon income
// earned so far, and the portfolio's value at current prices. Total value
// is current value plus coupon income; profit percent compares it to the
// invested amount.
func (s *summaryService) Summary(ctx context.Context) (*models.SummaryView, error) {
	stored, err := s.summary.Get(ctx)
	if err != nil {
		return nil, err
	}
	view := &models.SummaryView{
		Invested:          stored.Invested,
		TradesSumByCur:    map[string]decimal.Decimal{},
		CurrentValueByCur: map[string]decimal.Decimal{},
		UpdatedAt:         stored.UpdatedAt,
	}

	table, err := s.fx.RateTable(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.fillTradesSum(ctx, view); err != nil {
		return nil, err
	}
	if err := s.fillCurrentValue(ctx, view, table); err != nil {
		return nil, err
	}

	profit, err := s.coupons.Profit(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	view.CouponProfit = profit

	view.TotalValue = view.CurrentValue.Add(view.CouponProfit)
	if view.Invested.IsPositive() {
		p := view.TotalValue.Div(view.Invested).Mul(decimal.NewFromInt(100))
		view.ProfitPercent = &p
	}
	return view, nil
}

func (s *summaryService) fillTradesSum(ctx context.Context, view *models.SummaryView) error {
	positions, err := s.positions.Positions(ctx)
	if err != nil {
		return err
	}
	for _, p := range positions {
		view.TradesSumByCur[p.Currency] = view.TradesSumByCur[p.Currency].Add(p.Amount)
		if p.AmountInRub != nil {
			view.TradesSum = view.TradesSum.Add(*p.AmountInRub)
		} else {
			if view.UnconvertedByCur == nil {
				view.UnconvertedByCur = map[string]decimal.Decimal{}
			}
			view.UnconvertedByCur[p.Currency] = view.UnconvertedByCur[p.Currency].Add(p.Amount)
		}
	}
	return nil
}

// fillCurrentValue marks the portfolio to market: held quantity times last
// price per bond, grouped by currency, converted at current rates.
func (s *summaryService) fillCurrentValue(ctx context.Context, view *models.SummaryView, table portfolio.RateTable) error {
	trades, err := s.trades.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range trades {
		if t.Bond == nil || t.Bond.LastPrice == nil {
			continue
		}
		qty := t.SignedQty()
		if qty.IsZero() {
			continue
		}
		value := t.Bond.LastPrice.Mul(qty)
		currency := portfolio.CurrencySUR
		if t.Bond.Currency != nil && *t.Bond.Currency != "" {
			currency = portfolio.NormalizeCurrency(*t.Bond.Currency)
		}
		view.CurrentValueByCur[currency] = view.CurrentValueByCur[currency].Add(value)
	}

	for currency, value := range view.CurrentValueByCur {
		if portfolio.IsReportingCurrency(currency) {
			view.CurrentValue = view.CurrentValue.Add(value)
			continue
		}
		rate, ok := table.Lookup(currency)
		if !ok {
			if view.UnconvertedByCur == nil {
				view.UnconvertedByCur = map[string]decimal.Decimal{}
			}
			view.UnconvertedByCur[currency] = view.UnconvertedByCur[currency].Add(value)
			continue
		}
		d := decimal.NewFromFloat(rate)
		view.CurrentValue = view.CurrentValue.Add(value.Mul(d))
		if view.FxRatesUsed == nil {
			view.FxRatesUsed = map[string]decimal.Decimal{}
		}
		view.FxRatesUsed[currency] = d
	}
	return nil
}

func (s *summaryService) SetInvested(ctx context.Context, invested decimal.Decimal) (*models.SummaryView, error) {
	row := models.PortfolioSummary{Invested: invested}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.summary.SetInvested(ctx, invested); err != nil {
		return nil, err
	}
	return s.Summary(ctx)
}
