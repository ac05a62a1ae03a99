package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Set bundles every handler the router mounts.
type Set struct {
	Bonds     *BondHandler
	Trades    *TradeHandler
	FX        *FXHandler
	Coupons   *CouponHandler
	Summary   *SummaryHandler
	Portfolio *PortfolioHandler
	Index     *IndexHandler
	Logs      *LogHandler
}

// NewRouter mounts the API under /api plus the health endpoint. The health
// func reports database reachability.
func NewRouter(s Set, health func() error) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if health != nil {
			if err := health(); err != nil {
				status = "unhealthy: " + err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"service": "bondwatch-backend",
		})
	})

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/bonds", s.Bonds.HandleBonds)
	api.HandleFunc("/bonds/refresh", s.Bonds.HandleRefresh)
	api.HandleFunc("/bonds/weights", s.Portfolio.HandleWeights)
	api.HandleFunc("/bonds/merged", s.Portfolio.HandleMerged)
	api.HandleFunc("/search_bonds", s.Bonds.HandleSearch)

	api.HandleFunc("/trades", s.Trades.HandleTrades)
	api.HandleFunc("/trades/{id}", s.Trades.HandleTrade)

	api.HandleFunc("/positions", s.Portfolio.HandlePositions)
	api.HandleFunc("/portfolio_summary", s.Summary.HandleSummary)
	api.HandleFunc("/coupons", s.Coupons.HandleSchedule)

	api.HandleFunc("/fxrates", s.FX.HandleRates)
	api.HandleFunc("/fxrates/refresh", s.FX.HandleRefresh)

	api.HandleFunc("/index/history", s.Index.HandleHistory)
	api.HandleFunc("/logs", s.Logs.HandleLogs)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
