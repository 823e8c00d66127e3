package storage

import (
	"context"
	"fmt"

	"github.com/network-monitor/backend/internal/storage/models"
)

// BlockedDeviceRepository provides data access for the permanent deny-list.
type BlockedDeviceRepository struct {
	BaseRepository
}

// NewBlockedDeviceRepository creates a new blocked device repository.
func NewBlockedDeviceRepository(db *DB) *BlockedDeviceRepository {
	return &BlockedDeviceRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ListIDs returns every blocked device id.
func (r *BlockedDeviceRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB().QueryContext(ctx, "SELECT device_id FROM blocked_devices")
	if err != nil {
		return nil, fmt.Errorf("querying blocked ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning blocked id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// List returns blocked devices, most recently blocked first.
func (r *BlockedDeviceRepository) List(ctx context.Context) ([]models.BlockedDevice, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT device_id, name, ip, device_type, location, blocked_at
		FROM blocked_devices
		ORDER BY blocked_at DESC, device_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying blocked devices: %w", err)
	}
	defer rows.Close()

	var devices []models.BlockedDevice
	for rows.Next() {
		var d models.BlockedDevice
		if err := rows.Scan(&d.DeviceID, &d.Name, &d.IP, &d.DeviceType, &d.Location, &d.BlockedAt); err != nil {
			return nil, fmt.Errorf("scanning blocked device: %w", err)
		}
		devices = append(devices, d)
	}

	return devices, rows.Err()
}
