package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bondwatch/bondwatch/internal/services"
)

type CouponHandler struct {
	coupons services.CouponService
}

func NewCouponHandler(coupons services.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// HandleSchedule serves the coupon calendar with expected payouts.
// @Summary Get the coupon schedule
// @Description Every stored coupon joined with the held quantity
// @Tags coupons
// @Produce json
// @Success 200 {array} models.CouponView
// @Failure 500 {string} string "Internal server error"
// @Router /coupons [get]
func (h *CouponHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views, err := h.coupons.Schedule(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(views)
}
