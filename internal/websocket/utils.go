package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadMessage reads one raw frame and peeks at its action.
// The idle deadline is refreshed on every frame.
func ReadMessage(conn *websocket.Conn) (Action, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return "", nil, err
	}

	var env RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", raw, err
	}
	return env.Action, raw, nil
}
