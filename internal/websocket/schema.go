package websocket

import "github.com/techsynergy/campus-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing     Action = "ping"
	ActionMarkRead Action = "mark_read"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// MarkReadRequest acknowledges a delivered notification.
type MarkReadRequest struct {
	Action Action `json:"action"`
	ID     string `json:"id"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventNotification Event = "notification"
	EventAck          Event = "ack"
	EventPong         Event = "pong"
)

type NotificationEvent struct {
	Event        Event              `json:"event"`
	Notification model.Notification `json:"notification"`
}

type AckResponse struct {
	Event Event  `json:"event"`
	ID    string `json:"id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
