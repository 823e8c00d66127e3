package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/api/middleware"
	"github.com/network-monitor/backend/internal/simulator"
)

// SettingsResponse represents the simulator settings in API responses.
// Durations use Go duration syntax, e.g. "8s" or "1m30s".
type SettingsResponse struct {
	Probability      float64 `json:"probability"`
	Interval         string  `json:"interval"`
	SpeedInterval    string  `json:"speed_interval"`
	ActivityInterval string  `json:"activity_interval"`
}

// UpdateSettingsRequest is a partial update; omitted fields keep their value.
type UpdateSettingsRequest struct {
	Probability      *float64 `json:"probability"`
	Interval         *string  `json:"interval"`
	SpeedInterval    *string  `json:"speed_interval"`
	ActivityInterval *string  `json:"activity_interval"`
}

// SimulatorControl is the live simulator.
type SimulatorControl interface {
	Settings() simulator.Settings
	Reconfigure(simulator.Settings) error
}

// SettingsStore persists simulator settings.
type SettingsStore interface {
	SaveSimulator(ctx context.Context, s simulator.Settings) error
}

func toSettingsResponse(s simulator.Settings) SettingsResponse {
	return SettingsResponse{
		Probability:      s.Probability,
		Interval:         s.Interval.String(),
		SpeedInterval:    s.SpeedInterval.String(),
		ActivityInterval: s.ActivityInterval.String(),
	}
}

// GetSettings returns the active simulator settings.
func GetSettings(sim SimulatorControl) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toSettingsResponse(sim.Settings()))
	}
}

// UpdateSettings validates, applies and persists new simulator settings. A
// failed save restores the previous settings.
func UpdateSettings(sim SimulatorControl, store SettingsStore, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		next := sim.Settings()
		if req.Probability != nil {
			next.Probability = *req.Probability
		}

		durations := []struct {
			name string
			raw  *string
			dst  *time.Duration
		}{
			{"interval", req.Interval, &next.Interval},
			{"speed_interval", req.SpeedInterval, &next.SpeedInterval},
			{"activity_interval", req.ActivityInterval, &next.ActivityInterval},
		}
		for _, d := range durations {
			if d.raw == nil {
				continue
			}
			parsed, err := time.ParseDuration(*d.raw)
			if err != nil {
				middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation,
					"Invalid duration", map[string]string{"field": d.name, "value": *d.raw})
				return
			}
			*d.dst = parsed
		}

		if err := next.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		previous := sim.Settings()
		if err := sim.Reconfigure(next); err != nil {
			log.Error().Err(err).Msg("failed to reschedule simulator")
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to apply settings")
			return
		}
		if err := store.SaveSimulator(r.Context(), next); err != nil {
			log.Error().Err(err).Msg("failed to persist simulator settings")
			if rerr := sim.Reconfigure(previous); rerr != nil {
				log.Error().Err(rerr).Msg("failed to restore simulator settings")
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update settings")
			return
		}

		writeJSON(w, http.StatusOK, toSettingsResponse(next))
	}
}
