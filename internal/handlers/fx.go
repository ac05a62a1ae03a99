package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bondwatch/bondwatch/internal/services"
)

type FXHandler struct {
	fx services.FXService
}

func NewFXHandler(fx services.FXService) *FXHandler {
	return &FXHandler{fx: fx}
}

// HandleRates lists the stored conversion rates.
// @Summary List FX rates
// @Description Get the stored ruble conversion rates
// @Tags fx
// @Produce json
// @Success 200 {array} models.FXRate
// @Failure 500 {string} string "Internal server error"
// @Router /fxrates [get]
func (h *FXHandler) HandleRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rates, err := h.fx.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(rates)
}

// HandleRefresh pulls fresh rates from the central bank feed.
// @Summary Refresh FX rates
// @Description Fetch current rates for every traded currency and store them
// @Tags fx
// @Produce json
// @Success 200 {array} models.FXRate
// @Failure 502 {string} string "Upstream error"
// @Router /fxrates/refresh [post]
func (h *FXHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	saved, err := h.fx.Refresh(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(saved)
}
