package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// sendBufferSize bounds the per-connection outbound queue
const sendBufferSize = 64

// Client is one connected ordering or kitchen screen
type Client struct {
	ID   string
	conn Conn
	send chan []byte

	mu      sync.Mutex
	kitchen bool
	closed  bool
}

func newClient(conn Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// IsKitchen reports whether the client registered as a kitchen display
func (c *Client) IsKitchen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kitchen
}

func (c *Client) setKitchen(kitchen bool) {
	c.mu.Lock()
	c.kitchen = kitchen
	c.mu.Unlock()
}

// enqueue queues msg without blocking. It returns false when the client is
// closed or its queue is full.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the writer; safe to call more than once
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
