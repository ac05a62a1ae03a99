package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/moex"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"github.com/bondwatch/bondwatch/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type issTable struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

// newISSServer fakes the slice of the exchange API the add-and-refresh flow
// touches for one OFZ paper.
func newISSServer(t *testing.T) *httptest.Server {
	t.Helper()
	pastCoupon := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	futureCoupon := time.Now().AddDate(0, 0, 150).Format("2006-01-02")

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var payload interface{}
		switch r.URL.Path {
		case "/engines/stock/markets/bonds/securities/SU26240.json":
			payload = map[string]issTable{
				"securities": {
					Columns: []string{"SECID", "ISIN", "SHORTNAME", "FACEVALUE", "FACEUNIT", "COUPONPERCENT", "MATURITYDATE", "PREVPRICE"},
					Data: [][]interface{}{
						{"SU26240", "RU000A103766", "ОФЗ 26240", 1000.0, "SUR", 7.1, "2036-07-30", 95.0},
					},
				},
				"marketdata": {
					Columns: []string{"SECID", "LAST"},
					Data:    [][]interface{}{{"SU26240", 95.5}},
				},
			}
		case "/securities/SU26240/bondization.json":
			payload = map[string]issTable{
				"coupons": {
					Columns: []string{"coupondate", "value", "currencyid"},
					Data: [][]interface{}{
						{pastCoupon, 34.9, "SUR"},
						{futureCoupon, 34.9, "SUR"},
					},
				},
			}
		case "/history/engines/stock/markets/bonds/securities/SU26240.json":
			payload = map[string]issTable{
				"history": {
					Columns: []string{"TRADEDATE", "CLOSE", "OPEN", "FACEVALUE"},
					Data: [][]interface{}{
						{time.Now().AddDate(0, 0, -1).Format("2006-01-02"), 95.0, 94.8, 1000.0},
					},
				},
			}
		default:
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
}

func newAppRouter(t *testing.T, issURL string) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.Bond{},
		&models.Trade{},
		&models.Coupon{},
		&models.Price{},
		&models.FXRate{},
		&models.EventLog{},
		&models.PortfolioSummary{},
	))
	database := &db.DB{DB: gdb}

	bondRepo := repositories.NewBondRepository(database)
	tradeRepo := repositories.NewTradeRepository(database)
	couponRepo := repositories.NewCouponRepository(database)
	priceRepo := repositories.NewPriceRepository(database)
	fxRepo := repositories.NewFXRateRepository(database)
	logRepo := repositories.NewEventLogRepository(database)
	summaryRepo := repositories.NewSummaryRepository(database)

	client := moex.NewClientWithBaseURL(issURL, nil)
	bondService := services.NewBondService(bondRepo, couponRepo, priceRepo, client, nil)
	tradeService := services.NewTradeService(tradeRepo, bondRepo, nil)
	fxService := services.NewFXService(fxRepo, tradeRepo, &stubRateProviderIT{}, nil)
	couponService := services.NewCouponService(couponRepo, tradeRepo)
	positionService := services.NewPositionService(tradeRepo, fxService)
	summaryService := services.NewSummaryService(summaryRepo, couponRepo, positionService, tradeRepo, fxService)
	portfolioService := services.NewPortfolioService(bondRepo, tradeRepo, fxService)
	logService := services.NewLogService(logRepo)

	return NewRouter(Set{
		Bonds:     NewBondHandler(bondService, logService),
		Trades:    NewTradeHandler(tradeService, logService),
		FX:        NewFXHandler(fxService),
		Coupons:   NewCouponHandler(couponService),
		Summary:   NewSummaryHandler(summaryService),
		Portfolio: NewPortfolioHandler(portfolioService, positionService),
		Index:     NewIndexHandler(services.NewIndexService(client)),
		Logs:      NewLogHandler(logService),
	}, database.Health)
}

type stubRateProviderIT struct{}

func (p *stubRateProviderIT) FetchRates(ctx context.Context, currencies []string) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}

func TestAddBondTradeAndSummaryFlow(t *testing.T) {
	iss := newISSServer(t)
	defer iss.Close()
	router := newAppRouter(t, iss.URL)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Add the bond from the exchange.
	rec := do("POST", "/api/bonds", map[string]string{"secid": "su26240"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bond models.Bond
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bond))
	assert.Equal(t, "SU26240", bond.SecID)
	require.NotNil(t, bond.LastPrice)
	// 95.5 percent of a 1000 face.
	assert.True(t, bond.LastPrice.Equal(decimal.RequireFromString("955")), "last price = %s", bond.LastPrice)

	// Record a buy two months back, before the first coupon.
	tradeDate := time.Now().AddDate(0, 0, -60)
	price := decimal.RequireFromString("950")
	qty := decimal.RequireFromString("10")
	rec = do("POST", "/api/trades", &models.Trade{
		BondID:   bond.ID,
		Date:     &tradeDate,
		BuyPrice: &price,
		BuyQty:   &qty,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Weights: the single bond carries the whole portfolio.
	rec = do("GET", "/api/bonds/weights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var weights []*models.WeightRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &weights))
	require.Len(t, weights, 1)
	assert.True(t, weights[0].TotalQty.Equal(decimal.RequireFromString("10")))
	assert.True(t, weights[0].BondValue.Equal(decimal.RequireFromString("9550")), "value = %s", weights[0].BondValue)
	assert.True(t, weights[0].WeightPercent.Equal(decimal.RequireFromString("100")))

	// Merged dashboard rows agree.
	rec = do("GET", "/api/bonds/merged", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var merged []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	require.Len(t, merged, 1)
	assert.Equal(t, "SU26240", merged[0]["secid"])
	assert.InDelta(t, 9550.0, merged[0]["abs_value_in_rub"].(float64), 1e-6)
	assert.InDelta(t, 100.0, merged[0]["weight"].(float64), 1e-6)

	// Coupon schedule has both payments scaled by the held quantity.
	rec = do("GET", "/api/coupons", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var schedule []*models.CouponView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schedule))
	require.Len(t, schedule, 2)
	assert.True(t, schedule[0].Payout.Equal(decimal.RequireFromString("349")), "payout = %s", schedule[0].Payout)
	assert.True(t, schedule[0].IsPast)
	assert.False(t, schedule[1].IsPast)

	// Summary: invested cost, market value and the coupon already received.
	rec = do("PUT", "/api/portfolio_summary", map[string]string{"invested": "10000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view models.SummaryView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.TradesSum.Equal(decimal.RequireFromString("9500")), "trades sum = %s", view.TradesSum)
	assert.True(t, view.CurrentValue.Equal(decimal.RequireFromString("9550")), "current value = %s", view.CurrentValue)
	assert.True(t, view.CouponProfit.Equal(decimal.RequireFromString("349")), "coupon profit = %s", view.CouponProfit)
	assert.True(t, view.TotalValue.Equal(decimal.RequireFromString("9899")))
	require.NotNil(t, view.ProfitPercent)
	assert.True(t, view.ProfitPercent.Equal(decimal.RequireFromString("98.99")), "profit = %s", view.ProfitPercent)
}
