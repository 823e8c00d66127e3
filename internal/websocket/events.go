package websocket

import (
	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/monitor"
)

// EventBroadcaster turns dashboard callbacks into WebSocket events.
// It implements monitor.Observer.
type EventBroadcaster struct {
	hub *Hub
	log zerolog.Logger
}

var _ monitor.Observer = (*EventBroadcaster)(nil)

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub, log zerolog.Logger) *EventBroadcaster {
	return &EventBroadcaster{hub: hub, log: log}
}

// OnDeviceAdded broadcasts a newly visible device.
func (b *EventBroadcaster) OnDeviceAdded(d monitor.Device) {
	b.broadcast(NewMessage(TypeDeviceAdded, d))
}

// OnDeviceRemoved broadcasts a blocked device's removal with the block sound.
func (b *EventBroadcaster) OnDeviceRemoved(id string) {
	b.broadcast(NewMessage(TypeDeviceRemoved, DeviceRemovedPayload{DeviceID: id, Sound: SoundBlock}))
}

// OnAlertOpened broadcasts the pending-device alert with its sound and vibration cue.
func (b *EventBroadcaster) OnAlertOpened(d monitor.Device) {
	b.broadcast(NewMessage(TypeAlertOpened, AlertOpenedPayload{
		Device:  d,
		Sound:   SoundAlert,
		Vibrate: alertVibration,
	}))
}

// OnAlertClosed broadcasts that the alert was resolved.
func (b *EventBroadcaster) OnAlertClosed() {
	b.broadcast(NewMessage(TypeAlertClosed, nil))
}

// OnConnectionCountChanged broadcasts the new connection count.
func (b *EventBroadcaster) OnConnectionCountChanged(n int) {
	b.broadcast(NewMessage(TypeConnectionsChanged, ConnectionsPayload{Count: n, Sound: SoundSuccess}))
}

// OnSpeedSample broadcasts a speed reading and its gauge percentage.
func (b *EventBroadcaster) OnSpeedSample(downloadMbps, uploadMbps float64) {
	b.broadcast(NewMessage(TypeSpeedSample, SpeedPayload{
		DownloadMbps: downloadMbps,
		UploadMbps:   uploadMbps,
		BarPercent:   downloadMbps / maxDownloadMbps * 100,
	}))
}

// OnLogAppended broadcasts a new activity log entry.
func (b *EventBroadcaster) OnLogAppended(e monitor.LogEntry) {
	b.broadcast(NewMessage(TypeLogAppended, e))
}

// OnNetworkActivity broadcasts which device types are active.
func (b *EventBroadcaster) OnNetworkActivity(activity map[monitor.DeviceType]bool) {
	b.broadcast(NewMessage(TypeNetworkActivity, activity))
}

// Encode serializes a message, logging failures.
func (b *EventBroadcaster) Encode(msg Message) ([]byte, bool) {
	data, err := msg.JSON()
	if err != nil {
		b.log.Error().Err(err).Str("type", string(msg.Type)).Msg("error encoding websocket message")
		return nil, false
	}
	return data, true
}

// SendTo delivers a message to a single client.
func (b *EventBroadcaster) SendTo(client *Client, msg Message) {
	if data, ok := b.Encode(msg); ok {
		b.hub.SendTo(client, data)
	}
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	if data, ok := b.Encode(msg); ok {
		b.hub.Broadcast(data)
	}
}
