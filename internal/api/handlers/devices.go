package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/network-monitor/backend/internal/api/middleware"
	"github.com/network-monitor/backend/internal/monitor"
	"github.com/network-monitor/backend/internal/storage/models"
)

// DecisionResponse is returned by the allow and block endpoints.
type DecisionResponse struct {
	DeviceID    string         `json:"device_id,omitempty"`
	Action      monitor.Action `json:"action"`
	Connections int            `json:"connections"`
}

// BlockedLister lists the persisted deny-list.
type BlockedLister interface {
	List(ctx context.Context) ([]models.BlockedDevice, error)
}

// DecisionLister lists the persisted decision audit trail.
type DecisionLister interface {
	List(ctx context.Context, limit int) ([]models.DecisionRecord, error)
	ListByDevice(ctx context.Context, deviceID string) ([]models.DecisionRecord, error)
}

// ListDevices returns the visible devices in arrival order.
func ListDevices(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dash.Devices())
	}
}

// GetDevice returns a single visible device by ID.
func GetDevice(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dev, err := dash.Device(mux.Vars(r)["id"])
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dev)
	}
}

// AllowDevice grants a visible device access.
func AllowDevice(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := dash.Allow(r.Context(), id); err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DecisionResponse{
			DeviceID:    id,
			Action:      monitor.ActionAllowed,
			Connections: dash.Connections(),
		})
	}
}

// BlockDevice removes a visible device and denies its ID forever.
func BlockDevice(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := dash.Block(r.Context(), id); err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DecisionResponse{
			DeviceID:    id,
			Action:      monitor.ActionBlocked,
			Connections: dash.Connections(),
		})
	}
}

// ListBlocked returns the persisted deny-list.
func ListBlocked(repo BlockedLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blocked, err := repo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query blocked devices")
			return
		}
		if blocked == nil {
			blocked = []models.BlockedDevice{}
		}
		writeJSON(w, http.StatusOK, blocked)
	}
}

// ListDecisions returns the decision audit trail, newest first.
func ListDecisions(repo DecisionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		decisions, err := repo.List(r.Context(), limit)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query decisions")
			return
		}
		if decisions == nil {
			decisions = []models.DecisionRecord{}
		}
		writeJSON(w, http.StatusOK, decisions)
	}
}

// ListDeviceDecisions returns the decisions taken on one device ID. The device
// does not have to be visible; blocked devices keep their history.
func ListDeviceDecisions(repo DecisionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decisions, err := repo.ListByDevice(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query decisions")
			return
		}
		if decisions == nil {
			decisions = []models.DecisionRecord{}
		}
		writeJSON(w, http.StatusOK, decisions)
	}
}
