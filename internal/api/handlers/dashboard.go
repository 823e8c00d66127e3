package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/network-monitor/backend/internal/api/middleware"
	"github.com/network-monitor/backend/internal/monitor"
)

// Location describes where the observer sits on the map.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Proxy     string  `json:"proxy"`
}

// DirectConnection is the proxy reported when no proxy is in use.
const DirectConnection = "Direct Connection"

// NavigateRequest is the body of POST /api/navigate.
type NavigateRequest struct {
	URL string `json:"url"`
}

// GetSnapshot returns the whole dashboard state in one consistent read.
func GetSnapshot(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dash.Snapshot())
	}
}

// GetLog returns the connection log, newest first.
func GetLog(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dash.Log())
	}
}

// GetSpeed returns the latest bandwidth sample, or 204 before the first one.
func GetSpeed(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample, ok := dash.LatestSpeed()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, sample)
	}
}

// GetLocation returns the observer location.
func GetLocation(loc Location) http.HandlerFunc {
	if loc.Proxy == "" {
		loc.Proxy = DirectConnection
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, loc)
	}
}

// Navigate records a browser navigation in the connection log.
func Navigate(dash *monitor.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NavigateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		url := strings.TrimSpace(req.URL)
		if url == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "url is required")
			return
		}

		entry := dash.AppendLog("Navigated to "+url, monitor.StatusAllowed)
		writeJSON(w, http.StatusCreated, entry)
	}
}
