package websocket

import (
	"encoding/json"
	"time"

	"github.com/network-monitor/backend/internal/monitor"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSnapshot           MessageType = "dashboard.snapshot"
	TypeDeviceAdded        MessageType = "device.added"
	TypeDeviceRemoved      MessageType = "device.removed"
	TypeAlertOpened        MessageType = "alert.opened"
	TypeAlertClosed        MessageType = "alert.closed"
	TypeConnectionsChanged MessageType = "connections.changed"
	TypeSpeedSample        MessageType = "speed.sample"
	TypeNetworkActivity    MessageType = "network.activity"
	TypeLogAppended        MessageType = "log.appended"

	// Client -> Server command types
	TypeDeviceAllow  MessageType = "device.allow"
	TypeDeviceBlock  MessageType = "device.block"
	TypeAlertAllow   MessageType = "alert.allow"
	TypeAlertBlock   MessageType = "alert.block"
	TypeAlertDismiss MessageType = "alert.dismiss"
	TypePing         MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Sound hints for the browser's audio collaborator.
const (
	SoundAlert   = "alert"
	SoundSuccess = "success"
	SoundBlock   = "block"
)

// maxDownloadMbps is the full-scale value of the dashboard speed bar.
const maxDownloadMbps = 150

// alertVibration is the haptic pattern, in milliseconds, for a new alert.
var alertVibration = []int{200, 100, 200}

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClientMessage is a command sent by a browser.
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DeviceCommandPayload is the payload for device.allow and device.block.
type DeviceCommandPayload struct {
	DeviceID string `json:"device_id"`
}

// DeviceRemovedPayload is the payload for device.removed events.
type DeviceRemovedPayload struct {
	DeviceID string `json:"device_id"`
	Sound    string `json:"sound"`
}

// AlertOpenedPayload is the payload for alert.opened events.
type AlertOpenedPayload struct {
	Device  monitor.Device `json:"device"`
	Sound   string         `json:"sound"`
	Vibrate []int          `json:"vibrate"`
}

// ConnectionsPayload is the payload for connections.changed events.
type ConnectionsPayload struct {
	Count int    `json:"count"`
	Sound string `json:"sound"`
}

// SpeedPayload is the payload for speed.sample events.
type SpeedPayload struct {
	DownloadMbps float64 `json:"download_mbps"`
	UploadMbps   float64 `json:"upload_mbps"`
	// BarPercent is the download speed as a share of the speed bar.
	BarPercent float64 `json:"bar_percent"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
