package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/network-monitor/backend/internal/monitor"
	"github.com/network-monitor/backend/internal/storage/models"
)

// DefaultDecisionLimit caps List when no limit is given.
const DefaultDecisionLimit = 100

// DecisionRepository persists the decision audit trail. A blocked decision
// also adds the device to blocked_devices in the same transaction.
type DecisionRepository struct {
	BaseRepository
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *DB) *DecisionRepository {
	return &DecisionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// RecordDecision implements monitor.DecisionRecorder.
func (r *DecisionRepository) RecordDecision(ctx context.Context, d monitor.Decision) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO decisions (
				id, device_id, device_name, ip, device_type, location, action, decided_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			GenerateID(), d.Device.ID, d.Device.Name, d.Device.IP,
			string(d.Device.Type), d.Device.Location, string(d.Action), d.DecidedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting decision: %w", err)
		}

		if d.Action != monitor.ActionBlocked {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO blocked_devices (device_id, name, ip, device_type, location, blocked_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(device_id) DO NOTHING
		`,
			d.Device.ID, d.Device.Name, d.Device.IP,
			string(d.Device.Type), d.Device.Location, d.DecidedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting blocked device: %w", err)
		}
		return nil
	})
}

// List returns up to limit decisions, newest first.
func (r *DecisionRepository) List(ctx context.Context, limit int) ([]models.DecisionRecord, error) {
	if limit <= 0 {
		limit = DefaultDecisionLimit
	}

	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, device_id, device_name, ip, device_type, location, action, decided_at
		FROM decisions
		ORDER BY decided_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var records []models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		if err := rows.Scan(
			&rec.ID, &rec.DeviceID, &rec.DeviceName, &rec.IP,
			&rec.DeviceType, &rec.Location, &rec.Action, &rec.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListByDevice returns the decisions taken on one device, newest first.
func (r *DecisionRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.DecisionRecord, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, device_id, device_name, ip, device_type, location, action, decided_at
		FROM decisions
		WHERE device_id = ?
		ORDER BY decided_at DESC, rowid DESC
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying device decisions: %w", err)
	}
	defer rows.Close()

	var records []models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		if err := rows.Scan(
			&rec.ID, &rec.DeviceID, &rec.DeviceName, &rec.IP,
			&rec.DeviceType, &rec.Location, &rec.Action, &rec.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
