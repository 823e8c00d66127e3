package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/api/middleware"
	"github.com/network-monitor/backend/internal/monitor"
	ws "github.com/network-monitor/backend/internal/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	commandTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard may be served from a different origin in development
		return true
	},
}

// CommandHandler applies client commands to the dashboard and answers
// failures to the sender only.
type CommandHandler struct {
	dash   *monitor.Dashboard
	events *ws.EventBroadcaster
	log    zerolog.Logger
}

// NewCommandHandler creates a command handler.
func NewCommandHandler(dash *monitor.Dashboard, events *ws.EventBroadcaster, log zerolog.Logger) *CommandHandler {
	return &CommandHandler{dash: dash, events: events, log: log}
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to WebSocket.
// Each new client first receives a dashboard snapshot.
func WebSocketUpgrade(hub *ws.Hub, commands *CommandHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			commands.log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)
		commands.dash.WithSnapshot(func(snap monitor.Snapshot) {
			commands.events.SendTo(client, ws.NewMessage(ws.TypeSnapshot, snap))
		})

		// Start read and write pumps
		go writePump(conn, client)
		go readPump(conn, client, hub, commands)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps commands from the WebSocket connection to the dashboard.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, commands *CommandHandler) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				commands.log.Warn().Err(err).Str("client_id", client.ID).Msg("websocket read error")
			}
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		commands.Handle(ctx, client, message)
		cancel()
	}
}

// Handle decodes and runs one client command.
func (h *CommandHandler) Handle(ctx context.Context, client *ws.Client, data []byte) {
	var msg ws.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.replyError(client, "", middleware.ErrBadRequest, "Invalid message")
		return
	}

	h.log.Debug().Str("client_id", client.ID).Str("type", string(msg.Type)).Msg("websocket command")

	var err error
	switch msg.Type {
	case ws.TypePing:
		h.events.SendTo(client, ws.NewMessage(ws.TypePong, nil))
		return

	case ws.TypeDeviceAllow, ws.TypeDeviceBlock:
		var payload ws.DeviceCommandPayload
		if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, &payload) != nil || payload.DeviceID == "" {
			h.replyError(client, msg.Type, middleware.ErrBadRequest, "device_id is required")
			return
		}
		if msg.Type == ws.TypeDeviceAllow {
			err = h.dash.Allow(ctx, payload.DeviceID)
		} else {
			err = h.dash.Block(ctx, payload.DeviceID)
		}

	case ws.TypeAlertAllow:
		_, err = h.dash.AllowPending(ctx)
	case ws.TypeAlertBlock:
		_, err = h.dash.BlockPending(ctx)
	case ws.TypeAlertDismiss:
		_, err = h.dash.DismissPending(ctx)

	default:
		h.replyError(client, msg.Type, middleware.ErrBadRequest, "Unknown message type")
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, monitor.ErrNotFound):
		h.replyError(client, msg.Type, middleware.ErrNotFound, "Device not found")
	case errors.Is(err, monitor.ErrNoPendingAlert):
		h.replyError(client, msg.Type, middleware.ErrConflict, "No alert is pending")
	default:
		h.replyError(client, msg.Type, middleware.ErrInternalError, err.Error())
	}
}

func (h *CommandHandler) replyError(client *ws.Client, original ws.MessageType, code, message string) {
	h.events.SendTo(client, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:         code,
		Message:      message,
		OriginalType: string(original),
	}))
}
