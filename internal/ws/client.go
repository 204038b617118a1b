package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client wraps one browser connection subscribed to a stream channel.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{conn: conn, logger: logger}
}

// Send pushes one text frame. A failed or timed-out write closes the
// connection so the hub drops the subscriber.
func (c *Client) Send(payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.TextMessage, payload)
	if err != nil {
		c.logger.Warn("stream write failed", "error", err)
		_ = c.conn.Close()
	}
	return err
}

// Close terminates the connection.
func (c *Client) Close() {
	_ = c.conn.Close()
}
