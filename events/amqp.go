package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kendall-kelly/restaurant-pos-api/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys on the order exchange
const (
	RoutingKeyOrderCreated = "order.created"
	RoutingKeyOrderUpdated = "order.updated"
)

// publishTimeout bounds a single publish so a stalled broker can't hold up
// order handling
const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// OrderEvent is the JSON body of every published message
type OrderEvent struct {
	Type       string        `json:"type"`
	Order      *models.Order `json:"order"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// AMQPPublisher relays order lifecycle events to a topic exchange. It
// implements services.OrderNotifier; publish failures are logged, never
// returned.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     io.Closer
	exchange string
	logger   *slog.Logger
	now      func() time.Time
}

// NewAMQPPublisher declares exchange as a durable topic exchange on ch
func NewAMQPPublisher(ch Channel, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With("component", "amqp", "exchange", exchange),
		now:      time.Now,
	}, nil
}

// DialAMQPPublisher connects to the broker at url and opens a publisher
func DialAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := NewAMQPPublisher(ch, exchange, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func (p *AMQPPublisher) OrderCreated(ctx context.Context, order *models.Order) {
	p.publish(ctx, RoutingKeyOrderCreated, order)
}

func (p *AMQPPublisher) OrderUpdated(ctx context.Context, order *models.Order) {
	p.publish(ctx, RoutingKeyOrderUpdated, order)
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, order *models.Order) {
	body, err := json.Marshal(OrderEvent{Type: key, Order: order, OccurredAt: p.now().UTC()})
	if err != nil {
		p.logger.Error("failed to marshal order event", "routing_key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    p.now(),
		Body:         body,
	})
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("failed to publish order event",
			"routing_key", key, "order_id", order.ID, "error", err)
		return
	}
	p.logger.Debug("order event published", "routing_key", key, "order_id", order.ID)
}

// Close closes the channel and, when dialed, the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
