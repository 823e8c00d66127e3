// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/api/handlers"
	"github.com/network-monitor/backend/internal/api/middleware"
	"github.com/network-monitor/backend/internal/metrics"
	"github.com/network-monitor/backend/internal/monitor"
	"github.com/network-monitor/backend/internal/simulator"
	"github.com/network-monitor/backend/internal/storage"
	"github.com/network-monitor/backend/internal/websocket"
)

// Services bundles the router's dependencies.
type Services struct {
	DB        *storage.DB
	Dashboard *monitor.Dashboard
	Hub       *websocket.Hub
	Events    *websocket.EventBroadcaster
	Simulator *simulator.Scheduler
	Metrics   *metrics.Metrics
	Location  handlers.Location
	StaticDir string
	Version   string
	Log       zerolog.Logger
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging(s.Log, s.Metrics))
	r.Use(middleware.ErrorRecovery(s.Log))

	blocked := storage.NewBlockedDeviceRepository(s.DB)
	decisions := storage.NewDecisionRepository(s.DB)
	settings := storage.NewSettingsRepository(s.DB)
	commands := handlers.NewCommandHandler(s.Dashboard, s.Events, s.Log.With().Str("component", "websocket").Logger())

	r.Handle("/metrics", s.Metrics.Handler()).Methods("GET")

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.Dashboard, s.Hub, s.Simulator, s.Version)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub, commands)).Methods("GET")

	// Device endpoints
	api.HandleFunc("/devices", handlers.ListDevices(s.Dashboard)).Methods("GET")
	api.HandleFunc("/devices/{id}", handlers.GetDevice(s.Dashboard)).Methods("GET")
	api.HandleFunc("/devices/{id}/allow", handlers.AllowDevice(s.Dashboard)).Methods("POST")
	api.HandleFunc("/devices/{id}/block", handlers.BlockDevice(s.Dashboard)).Methods("POST")
	api.HandleFunc("/devices/{id}/decisions", handlers.ListDeviceDecisions(decisions)).Methods("GET")
	api.HandleFunc("/blocked", handlers.ListBlocked(blocked)).Methods("GET")
	api.HandleFunc("/decisions", handlers.ListDecisions(decisions)).Methods("GET")

	// Alert endpoints
	api.HandleFunc("/alert", handlers.GetAlert(s.Dashboard)).Methods("GET")
	api.HandleFunc("/alert/allow", handlers.AllowAlert(s.Dashboard)).Methods("POST")
	api.HandleFunc("/alert/block", handlers.BlockAlert(s.Dashboard)).Methods("POST")
	api.HandleFunc("/alert/dismiss", handlers.DismissAlert(s.Dashboard)).Methods("POST")

	// Dashboard panels
	api.HandleFunc("/snapshot", handlers.GetSnapshot(s.Dashboard)).Methods("GET")
	api.HandleFunc("/log", handlers.GetLog(s.Dashboard)).Methods("GET")
	api.HandleFunc("/speed", handlers.GetSpeed(s.Dashboard)).Methods("GET")
	api.HandleFunc("/location", handlers.GetLocation(s.Location)).Methods("GET")
	api.HandleFunc("/navigate", handlers.Navigate(s.Dashboard)).Methods("POST")

	// Settings endpoints
	api.HandleFunc("/settings", handlers.GetSettings(s.Simulator)).Methods("GET")
	api.HandleFunc("/settings", handlers.UpdateSettings(s.Simulator, settings, s.Log)).Methods("PUT")

	// Serve static frontend files
	if s.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.StaticDir)))
	}

	return r
}
