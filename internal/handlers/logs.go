package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bondwatch/bondwatch/internal/services"
)

const defaultLogLimit = 100

type LogHandler struct {
	logs services.LogService
}

func NewLogHandler(logs services.LogService) *LogHandler {
	return &LogHandler{logs: logs}
}

// HandleLogs serves or appends dashboard event log entries.
// @Summary List or append event log entries
// @Description Newest entries first; POST records a client-side event
// @Tags logs
// @Accept json
// @Produce json
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {array} models.EventLog
// @Failure 400 {string} string "Invalid request"
// @Failure 500 {string} string "Internal server error"
// @Router /logs [get]
// @Router /logs [post]
func (h *LogHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case "GET":
		limit := defaultLogLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				limit = n
			}
		}
		entries, err := h.logs.List(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(entries)
	case "POST":
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.logs.Log(r.Context(), req.Message); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "logged"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
