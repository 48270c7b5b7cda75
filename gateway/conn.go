package gateway

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/luminal-ai/agui-gateway/protocol"
)

const writeTimeout = 10 * time.Second

// Conn is the transport a session loop drives. ReadMessage blocks until the
// next client envelope arrives; WriteEvent serializes one outbound event.
// Both return an error once the transport is gone, which stops the loop.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteEvent(ev protocol.Event) error
	Close(code int, reason string) error
}

type wsConn struct {
	conn *websocket.Conn
}

// NewConn wraps a gorilla connection. The session loop is the only writer,
// so no write lock is needed.
func NewConn(conn *websocket.Conn) Conn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteEvent(ev protocol.Event) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(writeTimeout)
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && err != websocket.ErrCloseSent {
		return c.conn.Close()
	}
	return c.conn.Close()
}
