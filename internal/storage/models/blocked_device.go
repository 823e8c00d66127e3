// Package models contains the persisted records.
package models

import "time"

// BlockedDevice is a device id denied forever, with the details it had when blocked.
type BlockedDevice struct {
	DeviceID   string    `json:"device_id"`
	Name       string    `json:"name"`
	IP         string    `json:"ip"`
	DeviceType string    `json:"device_type"`
	Location   string    `json:"location"`
	BlockedAt  time.Time `json:"blocked_at"`
}
