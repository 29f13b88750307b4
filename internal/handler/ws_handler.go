package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/service"
	ws "github.com/techsynergy/campus-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live notifications over WebSocket.
type WSHandler struct {
	notificationService *service.NotificationService
	log                 zerolog.Logger
	upgrader            websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(notificationService *service.NotificationService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		notificationService: notificationService,
		log:                 log.With().Str("component", "ws_handler").Logger(),
		upgrader:            buildUpgrader(allowedOrigins),
	}
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteTyped(c.Conn, v)
}

func (c *wsConn) writeError(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteError(c.Conn, msg)
}

// NotificationStream godoc
// WS /ws/v1/notifications?token=...
// Pushes notifications as they are delivered. Clients may send ping and
// mark_read actions.
func (h *WSHandler) NotificationStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := &wsConn{Conn: raw}
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Client connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.notificationService.Subscribe(ctx, claims.UserID)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe failed")
		conn.writeError("notifications unavailable")
		return
	}

	go h.forward(ctx, conn, sub.Channel(), wsLog)

	for {
		action, payload, err := ws.ReadMessage(conn.Conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else if payload != nil {
				conn.writeError("invalid message")
				continue
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch action {
		case ws.ActionPing:
			conn.write(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionMarkRead:
			h.handleMarkRead(ctx, conn, claims.UserID, payload)
		default:
			wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(action))
		}
	}
}

// forward relays published notifications until ctx ends or the channel closes.
func (h *WSHandler) forward(ctx context.Context, conn *wsConn, ch <-chan *redis.Message, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var n model.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed notification")
				continue
			}
			if err := conn.write(ws.NotificationEvent{Event: ws.EventNotification, Notification: n}); err != nil {
				log.Debug().Err(err).Msg("Write failed, stopping forwarder")
				return
			}
		}
	}
}

func (h *WSHandler) handleMarkRead(ctx context.Context, conn *wsConn, userID int, payload []byte) {
	var req ws.MarkReadRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		conn.writeError("invalid mark_read payload")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		conn.writeError("invalid id format")
		return
	}

	if err := h.notificationService.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			conn.writeError("notification not found")
			return
		}
		h.log.Error().Err(err).Int("user_id", userID).Msg("Mark read failed")
		conn.writeError("internal error")
		return
	}

	conn.write(ws.AckResponse{Event: ws.EventAck, ID: id.String()})
}
