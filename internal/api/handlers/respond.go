package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/network-monitor/backend/internal/api/middleware"
	"github.com/network-monitor/backend/internal/monitor"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDashboardError maps dashboard sentinels onto the error envelope.
func writeDashboardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, monitor.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Device not found")
	case errors.Is(err, monitor.ErrNoPendingAlert):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "No alert is pending")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
	}
}
