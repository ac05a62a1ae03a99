package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bondwatch/bondwatch/internal/services"
)

type IndexHandler struct {
	index services.IndexService
}

func NewIndexHandler(index services.IndexService) *IndexHandler {
	return &IndexHandler{index: index}
}

// HandleHistory serves daily closes of the government bond index.
// @Summary Get bond index history
// @Description Daily index closes for a period, default last year
// @Tags index
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param till query string false "End date (YYYY-MM-DD)"
// @Success 200 {array} models.IndexPoint
// @Failure 502 {string} string "Upstream error"
// @Router /index/history [get]
func (h *IndexHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	var from, till time.Time
	if s := q.Get("from"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			from = t
		}
	}
	if s := q.Get("till"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			till = t
		}
	}
	if from.IsZero() || till.IsZero() {
		till = time.Now()
		from = till.AddDate(-1, 0, 0)
	}

	points, err := h.index.History(r.Context(), from, till)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(points)
}
