package models

import (
	"time"

	"github.com/network-monitor/backend/internal/monitor"
)

// DecisionRecord is one row of the decision audit trail.
type DecisionRecord struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	DeviceName string         `json:"device_name"`
	IP         string         `json:"ip"`
	DeviceType string         `json:"device_type"`
	Location   string         `json:"location"`
	Action     monitor.Action `json:"action"`
	DecidedAt  time.Time      `json:"decided_at"`
}
