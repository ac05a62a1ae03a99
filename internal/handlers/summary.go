package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bondwatch/bondwatch/internal/services"
	"github.com/shopspring/decimal"
)

type SummaryHandler struct {
	summary services.SummaryService
}

func NewSummaryHandler(summary services.SummaryService) *SummaryHandler {
	return &SummaryHandler{summary: summary}
}

// HandleSummary serves or updates the portfolio summary.
// @Summary Get or update the portfolio summary
// @Description Computed totals; PUT sets the invested amount
// @Tags summary
// @Accept json
// @Produce json
// @Success 200 {object} models.SummaryView
// @Failure 400 {string} string "Invalid request"
// @Failure 500 {string} string "Internal server error"
// @Router /portfolio_summary [get]
// @Router /portfolio_summary [put]
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case "GET":
		view, err := h.summary.Summary(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(view)
	case "PUT":
		var req struct {
			Invested decimal.Decimal `json:"invested"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		view, err := h.summary.SetInvested(r.Context(), req.Invested)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(view)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
