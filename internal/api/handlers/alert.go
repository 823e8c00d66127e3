package handlers

import (
	"context"
	"net/http"

	"github.com/network-monitor/backend/internal/monitor"
)

// GetAlert returns the device awaiting a decision, or 204 when none is.
func GetAlert(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dev, ok := dash.Pending()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, dev)
	}
}

// AllowAlert allows the pending device and closes the alert.
func AllowAlert(dash *monitor.Dashboard) http.HandlerFunc {
	return resolveAlert(dash, monitor.ActionAllowed, dash.AllowPending)
}

// BlockAlert blocks the pending device and closes the alert.
func BlockAlert(dash *monitor.Dashboard) http.HandlerFunc {
	return resolveAlert(dash, monitor.ActionBlocked, dash.BlockPending)
}

// DismissAlert closes the alert without a decision on the device.
func DismissAlert(dash *monitor.Dashboard) http.HandlerFunc {
	return resolveAlert(dash, monitor.ActionDismissed, dash.DismissPending)
}

func resolveAlert(dash *monitor.Dashboard, action monitor.Action, resolve func(ctx context.Context) (monitor.Device, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dev, err := resolve(r.Context())
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DecisionResponse{
			DeviceID:    dev.ID,
			Action:      action,
			Connections: dash.Connections(),
		})
	}
}
