package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bondwatch/bondwatch/internal/services"
)

type BondHandler struct {
	bonds services.BondService
	logs  services.LogService
}

func NewBondHandler(bonds services.BondService, logs services.LogService) *BondHandler {
	return &BondHandler{bonds: bonds, logs: logs}
}

// HandleBonds handles collection-level operations for the bond catalog.
// @Summary List, add or delete bonds
// @Description Get the stored bonds, add one by SECID or ISIN, or delete by ids
// @Tags bonds
// @Accept json
// @Produce json
// @Success 200 {array} models.Bond
// @Failure 400 {string} string "Invalid request"
// @Failure 500 {string} string "Internal server error"
// @Router /bonds [get]
// @Router /bonds [post]
// @Router /bonds [delete]
func (h *BondHandler) HandleBonds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case "GET":
		h.listBonds(w, r)
	case "POST":
		h.addBond(w, r)
	case "DELETE":
		h.deleteBonds(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BondHandler) listBonds(w http.ResponseWriter, r *http.Request) {
	bonds, err := h.bonds.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(bonds)
}

func (h *BondHandler) addBond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SecID string `json:"secid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SecID == "" {
		http.Error(w, "secid is required", http.StatusBadRequest)
		return
	}

	bond, err := h.bonds.Add(r.Context(), req.SecID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.logs.Log(r.Context(), fmt.Sprintf("bond added: %s", bond.SecID))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bond)
}

func (h *BondHandler) deleteBonds(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "ids are required", http.StatusBadRequest)
		return
	}

	deleted, err := h.bonds.Delete(r.Context(), req.IDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logs.Log(r.Context(), fmt.Sprintf("bonds deleted: %d", deleted))
	json.NewEncoder(w).Encode(map[string]int{"deleted": deleted})
}

// HandleSearch searches the exchange for bonds matching a query.
// @Summary Search bonds on the exchange
// @Description Search all bond markets by SECID, ISIN, name or issuer
// @Tags bonds
// @Produce json
// @Param query query string false "Search text"
// @Success 200 {array} moex.SecurityInfo
// @Failure 500 {string} string "Internal server error"
// @Router /search_bonds [get]
func (h *BondHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results, err := h.bonds.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(results)
}

// HandleRefresh re-pulls prices for every stored bond.
// @Summary Refresh bond prices
// @Description Re-read last prices and period opens from the exchange
// @Tags bonds
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {string} string "Internal server error"
// @Router /bonds/refresh [post]
func (h *BondHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.bonds.RefreshPrices(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "refreshed"})
}
