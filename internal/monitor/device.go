// Package monitor holds the dashboard state: the device registry, the pending
// alert slot, the connection counter and the connection log.
package monitor

import "time"

// DeviceType is the link type a simulated peer connected over.
type DeviceType string

const (
	TypeEthernet  DeviceType = "Ethernet"
	TypeBluetooth DeviceType = "Bluetooth"
	TypeInfrared  DeviceType = "Infrared"
)

// DeviceTypes lists every known device type in display order.
var DeviceTypes = []DeviceType{TypeEthernet, TypeBluetooth, TypeInfrared}

// Icon returns the marker glyph the dashboard renders for the type.
func (t DeviceType) Icon() string {
	switch t {
	case TypeEthernet:
		return "🌐"
	case TypeBluetooth:
		return "📶"
	case TypeInfrared:
		return "📡"
	default:
		return "❔"
	}
}

// Device is a simulated network peer.
type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	IP         string     `json:"ip"`
	Type       DeviceType `json:"type"`
	Icon       string     `json:"icon"`
	Location   string     `json:"location"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Authorized bool       `json:"authorized"`
	DetectedAt time.Time  `json:"detected_at"`
}

// Action is the outcome of a user decision on a device.
type Action string

const (
	ActionAllowed   Action = "allowed"
	ActionBlocked   Action = "blocked"
	ActionDismissed Action = "dismissed"
)

// Decision is a single allow/block/dismiss outcome, handed to the DecisionRecorder.
type Decision struct {
	Device    Device
	Action    Action
	DecidedAt time.Time
}
