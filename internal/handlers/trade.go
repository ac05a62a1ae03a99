package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/services"
	"github.com/gorilla/mux"
)

type TradeHandler struct {
	trades services.TradeService
	logs   services.LogService
}

func NewTradeHandler(trades services.TradeService, logs services.LogService) *TradeHandler {
	return &TradeHandler{trades: trades, logs: logs}
}

// HandleTrades handles collection-level operations for trades.
// @Summary List or create trades
// @Description Get all trades or record a new buy or sell
// @Tags trades
// @Accept json
// @Produce json
// @Success 200 {array} models.Trade
// @Failure 400 {string} string "Invalid request"
// @Failure 500 {string} string "Internal server error"
// @Router /trades [get]
// @Router /trades [post]
func (h *TradeHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case "GET":
		h.listTrades(w, r)
	case "POST":
		h.createTrade(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TradeHandler) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.trades.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(trades)
}

func (h *TradeHandler) createTrade(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.trades.Create(r.Context(), &trade)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// HandleTrade handles item-level operations for a trade.
// @Summary Delete a trade
// @Description Delete a single trade by ID
// @Tags trades
// @Produce json
// @Param id path string true "Trade ID"
// @Success 200 {object} map[string]string
// @Failure 404 {string} string "Not found"
// @Router /trades/{id} [delete]
func (h *TradeHandler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "Trade ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "DELETE":
		if err := h.trades.Delete(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logs.Log(r.Context(), fmt.Sprintf("trade deleted: %s", id))
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
