package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/network-monitor/backend/internal/simulator"
)

// Setting keys
const (
	SettingSimProbability   = "sim_probability"
	SettingSimInterval      = "sim_interval"
	SettingSpeedInterval    = "speed_interval"
	SettingActivityInterval = "activity_interval"
)

// SettingsRepository provides key/value access to runtime settings.
type SettingsRepository struct {
	BaseRepository
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetAll returns every stored setting.
func (r *SettingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.DB().QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// SetMany upserts the given settings in one transaction. Empty values are skipped.
func (r *SettingsRepository) SetMany(ctx context.Context, settings map[string]string) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		for key, value := range settings {
			if value == "" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
			`, key, value)
			if err != nil {
				return fmt.Errorf("updating setting %s: %w", key, err)
			}
		}
		return nil
	})
}

// LoadSimulator overlays the stored simulator settings on base. Keys that were
// never saved keep the base value.
func (r *SettingsRepository) LoadSimulator(ctx context.Context, base simulator.Settings) (simulator.Settings, error) {
	stored, err := r.GetAll(ctx)
	if err != nil {
		return base, err
	}

	out := base
	if v, ok := stored[SettingSimProbability]; ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return base, fmt.Errorf("parsing %s: %w", SettingSimProbability, err)
		}
		out.Probability = p
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{SettingSimInterval, &out.Interval},
		{SettingSpeedInterval, &out.SpeedInterval},
		{SettingActivityInterval, &out.ActivityInterval},
	}
	for _, d := range durations {
		v, ok := stored[d.key]
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return base, fmt.Errorf("parsing %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if err := out.Validate(); err != nil {
		return base, fmt.Errorf("stored simulator settings: %w", err)
	}
	return out, nil
}

// SaveSimulator persists every simulator setting.
func (r *SettingsRepository) SaveSimulator(ctx context.Context, s simulator.Settings) error {
	return r.SetMany(ctx, map[string]string{
		SettingSimProbability:   strconv.FormatFloat(s.Probability, 'f', -1, 64),
		SettingSimInterval:      s.Interval.String(),
		SettingSpeedInterval:    s.SpeedInterval.String(),
		SettingActivityInterval: s.ActivityInterval.String(),
	})
}
