// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/network-monitor/backend/internal/monitor"
	"github.com/network-monitor/backend/internal/storage"
	"github.com/network-monitor/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Version          string     `json:"version"`
	DevicesCount     int        `json:"devices_count"`
	BlockedCount     int        `json:"blocked_count"`
	Connections      int        `json:"connections"`
	AlertPending     bool       `json:"alert_pending"`
	WebSocketClients int        `json:"websocket_clients"`
	NextTickAt       *time.Time `json:"next_tick_at,omitempty"`
}

// NextRunner reports when the simulator will next attempt a connection.
type NextRunner interface {
	NextRun() *time.Time
}

// Status returns a handler that provides system status information.
func Status(dash *monitor.Dashboard, hub *websocket.Hub, sim NextRunner, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := dash.Snapshot()

		writeJSON(w, http.StatusOK, StatusResponse{
			Version:          version,
			DevicesCount:     len(snap.Devices),
			BlockedCount:     snap.BlockedCount,
			Connections:      snap.Connections,
			AlertPending:     snap.Pending != nil,
			WebSocketClients: hub.ClientCount(),
			NextTickAt:       sim.NextRun(),
		})
	}
}
