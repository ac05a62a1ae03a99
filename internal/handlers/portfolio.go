package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bondwatch/bondwatch/internal/services"
)

type PortfolioHandler struct {
	portfolio services.PortfolioService
	positions services.PositionService
}

func NewPortfolioHandler(portfolio services.PortfolioService, positions services.PositionService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, positions: positions}
}

// HandleWeights serves the raw SQL weight aggregation per bond.
// @Summary Get bond weights
// @Description Held quantity and value per bond with its share of the total
// @Tags portfolio
// @Produce json
// @Success 200 {array} models.WeightRow
// @Failure 500 {string} string "Internal server error"
// @Router /bonds/weights [get]
func (h *PortfolioHandler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := h.portfolio.Weights(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(rows)
}

// HandleMerged serves the valuation pipeline's dashboard rows.
// @Summary Get merged bonds
// @Description Bonds with resolved values, ruble conversions, weights and display strings, sorted by weight
// @Tags portfolio
// @Produce json
// @Success 200 {array} portfolio.MergedBond
// @Failure 500 {string} string "Internal server error"
// @Router /bonds/merged [get]
func (h *PortfolioHandler) HandleMerged(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	merged, err := h.portfolio.MergedBonds(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(merged)
}

// HandlePositions serves the per-trade invested amounts.
// @Summary Get positions
// @Description Each trade's derived amount with its ruble conversion
// @Tags portfolio
// @Produce json
// @Success 200 {array} models.PositionView
// @Failure 500 {string} string "Internal server error"
// @Router /positions [get]
func (h *PortfolioHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	positions, err := h.positions.Positions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(positions)
}
