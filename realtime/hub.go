package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/restaurant-pos-api/metrics"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"github.com/kendall-kelly/restaurant-pos-api/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn is the subset of *websocket.Conn the hub uses
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Orders is the order lifecycle as seen from a screen
type Orders interface {
	ActiveOrders(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error)
}

// Hub tracks connected screens and fans order events out to them. New
// orders go to kitchen screens only; updates go to every screen. Sends never
// block: a client whose queue is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "realtime"),
		metrics: m,
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ConnectionOpened()
	h.logger.Debug("client connected", "client_id", c.ID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		h.metrics.ConnectionClosed()
		h.logger.Debug("client disconnected", "client_id", c.ID)
	}
	c.close()
}

// Serve runs a connection until the peer disconnects or ctx is done.
// Commands are executed against orders on behalf of the client.
func (h *Hub) Serve(ctx context.Context, conn Conn, orders Orders) {
	c := newClient(conn)
	h.register(c)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(c)
	}()

	h.readLoop(ctx, c, orders)

	h.unregister(c)
	wg.Wait()
	conn.Close()
}

func (h *Hub) readLoop(ctx context.Context, c *Client, orders Orders) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read failed", "client_id", c.ID, "error", err)
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed message", "client_id", c.ID, "error", err)
			continue
		}
		h.handle(ctx, c, orders, msg)
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, orders Orders, msg Inbound) {
	switch msg.Type {
	case TypeRegister:
		c.setKitchen(msg.IsKitchen)
		h.logger.Info("client registered", "client_id", c.ID, "kitchen", msg.IsKitchen)
		if !msg.IsKitchen {
			return
		}
		active, err := orders.ActiveOrders(ctx)
		if err != nil {
			h.logger.Error("failed to load active orders", "client_id", c.ID, "error", err)
			h.sendTo(c, ErrorMessage{Type: TypeError, Message: "failed to load active orders"})
			return
		}
		if active == nil {
			active = []models.Order{}
		}
		h.sendTo(c, ActiveOrdersMessage{Type: TypeActiveOrders, Orders: active})

	case TypeUpdateStatus:
		if msg.OrderID == 0 {
			h.sendTo(c, ErrorMessage{Type: TypeError, Message: "orderId is required"})
			return
		}
		if _, err := orders.UpdateStatus(ctx, msg.OrderID, msg.Status); err != nil {
			h.logger.Warn("status update rejected",
				"client_id", c.ID, "order_id", msg.OrderID, "status", msg.Status, "error", err)
			h.sendTo(c, ErrorMessage{Type: TypeError, Message: updateErrorText(err)})
		}

	default:
		h.logger.Debug("ignoring unknown message type", "client_id", c.ID, "type", msg.Type)
	}
}

// updateErrorText keeps storage details out of client-visible errors
func updateErrorText(err error) string {
	switch {
	case services.IsValidationError(err):
		return err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return "order not found"
	default:
		return "failed to update order status"
	}
}

func (h *Hub) writeLoop(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("write failed", "client_id", c.ID, "error", err)
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) sendTo(c *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}
	if !c.enqueue(data) {
		h.dropped(c)
	}
}

func (h *Hub) broadcast(v any, kitchenOnly bool) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if kitchenOnly && !c.IsKitchen() {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.dropped(c)
		}
	}
}

func (h *Hub) dropped(c *Client) {
	h.metrics.IncrementMessagesDropped()
	h.logger.Debug("dropped outbound message", "client_id", c.ID)
}

// OrderCreated sends new_order to kitchen screens
func (h *Hub) OrderCreated(ctx context.Context, order *models.Order) {
	h.broadcast(OrderMessage{Type: TypeNewOrder, Order: order}, true)
}

// OrderUpdated sends order_update to every screen
func (h *Hub) OrderUpdated(ctx context.Context, order *models.Order) {
	h.broadcast(OrderMessage{Type: TypeOrderUpdate, Order: order}, false)
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
