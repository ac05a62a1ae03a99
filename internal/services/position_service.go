package services

import (
	"context"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/portfolio"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"github.com/shopspring/decimal"
)

type positionService struct {
	trades repositories.TradeRepository
	fx     FXService
}

// NewPositionService creates a new position service
func NewPositionService(trades repositories.TradeRepository, fx FXService) PositionService {
	return &positionService{trades: trades, fx: fx}
}

// Positions computes the invested amount of every trade, tagging each with
// the derivation used: an explicit total wins, then buy price times
// quantity, then the bond's last price, then the percent-of-face quote.
// Conversion uses the trade's own fixed rate when present, otherwise the
// current table; foreign amounts without any rate stay unconverted.
func (s *positionService) Positions(ctx context.Context) ([]*models.PositionView, error) {
	trades, err := s.trades.List(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.fx.RateTable(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*models.PositionView, 0, len(trades))
	for _, t := range trades {
		view := &models.PositionView{
			TradeID:  t.ID,
			BondID:   t.BondID,
			Currency: tradeCurrency(t),
		}
		if t.Bond != nil {
			view.SecID = t.Bond.SecID
			if t.Bond.Name != nil {
				view.BondName = *t.Bond.Name
			}
		}
		view.Amount, view.ChosenReason = chooseAmount(t)
		view.FxRate, view.AmountInRub = convertPosition(view.Amount, view.Currency, t.FxRate, table)
		views = append(views, view)
	}
	return views, nil
}

func tradeCurrency(t *models.Trade) string {
	if t.Currency != nil && *t.Currency != "" {
		return portfolio.NormalizeCurrency(*t.Currency)
	}
	if t.Bond != nil && t.Bond.Currency != nil {
		return portfolio.NormalizeCurrency(*t.Bond.Currency)
	}
	return portfolio.CurrencySUR
}

func chooseAmount(t *models.Trade) (decimal.Decimal, string) {
	comm := decimal.Zero
	if t.BuyComm != nil {
		comm = *t.BuyComm
	}
	nkd := decimal.Zero
	if t.BuyNkd != nil {
		nkd = *t.BuyNkd
	}

	if t.TotalAmount != nil {
		return *t.TotalAmount, models.PositionFromTotalAmount
	}
	if t.BuyPrice != nil && t.BuyQty != nil {
		return t.BuyPrice.Mul(*t.BuyQty).Add(nkd).Add(comm), models.PositionFromBuyPrice
	}
	if t.Bond != nil && t.Bond.LastPrice != nil && t.BuyQty != nil {
		last := *t.Bond.LastPrice
		if t.Bond.FaceValue != nil && last.LessThan(decimal.NewFromInt(200)) {
			// A value this small is a percent-of-face quote.
			amount := last.Div(decimal.NewFromInt(100)).Mul(*t.Bond.FaceValue).Mul(*t.BuyQty).Add(comm)
			return amount, models.PositionFromFace
		}
		return last.Mul(*t.BuyQty).Add(comm), models.PositionFromLastPrice
	}
	return decimal.Zero, models.PositionUnknown
}

func convertPosition(
	amount decimal.Decimal,
	currency string,
	tradeRate *decimal.Decimal,
	table portfolio.RateTable,
) (*decimal.Decimal, *decimal.Decimal) {
	if portfolio.IsReportingCurrency(currency) {
		rub := amount
		return nil, &rub
	}
	if tradeRate != nil && tradeRate.IsPositive() {
		rub := amount.Mul(*tradeRate)
		return tradeRate, &rub
	}
	if rate, ok := table.Lookup(currency); ok {
		d := decimal.NewFromFloat(rate)
		rub := amount.Mul(d)
		return &d, &rub
	}
	return nil, nil
}
