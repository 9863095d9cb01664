package registry

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// SocketWriter is the slice of the websocket connection the registry needs.
// *websocket.Conn satisfies it; tests substitute an in-memory recorder.
type SocketWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection. The write lock serializes frames from the
// broadcast fan-out and the handler's own replies onto the same socket.
type Client struct {
	ID   string
	conn SocketWriter
	mu   sync.Mutex
}

// Send writes a text frame to the client.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
