package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/restaurant-pos-api/metrics"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
)

const (
	// maxOrderNumberAttempts bounds regeneration when an order number is taken
	maxOrderNumberAttempts = 5
	// maxOrderTotal caps the sum of all lines, in minor units
	maxOrderTotal = 1_000_000_000_000
)

// SubmitOrderItem is one requested line. Price is the client-computed unit
// price in minor units, customizations included. It is a pointer so that a
// missing price is rejected rather than read as a free item.
type SubmitOrderItem struct {
	MenuItemID    uint                  `json:"menuItemId" validate:"required"`
	Name          string                `json:"name" validate:"required,max=100"`
	Price         *int64                `json:"price" validate:"required,gte=0,lte=100000000"`
	Quantity      int                   `json:"quantity" validate:"gt=0,lte=999"`
	Notes         *string               `json:"notes" validate:"omitempty,max=500"`
	Customization *models.Customization `json:"customization"`
}

// SubmitOrderInput is the body of a new order
type SubmitOrderInput struct {
	Items []SubmitOrderItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// OrderService is the order lifecycle manager: it validates submissions,
// assigns order numbers, records status changes and notifies listeners.
type OrderService struct {
	store    repository.OrderStore
	notifier OrderNotifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
	randIntN func(n int) int
}

// OrderServiceOption customizes an OrderService
type OrderServiceOption func(*OrderService)

// WithClock replaces the time source used for order numbers and windows
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

// WithRandom replaces the source of the random order-number suffix
func WithRandom(randIntN func(n int) int) OrderServiceOption {
	return func(s *OrderService) { s.randIntN = randIntN }
}

// NewOrderService creates an order service. notifier may be nil.
func NewOrderService(store repository.OrderStore, notifier OrderNotifier, logger *slog.Logger, m *metrics.Metrics, opts ...OrderServiceOption) *OrderService {
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	s := &OrderService{
		store:    store,
		notifier: notifier,
		logger:   logger.With("component", "orders"),
		metrics:  m,
		validate: newValidator(),
		now:      time.Now,
		randIntN: rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitOrder validates and persists a new order with status "new", then
// announces it to kitchen screens
func (s *OrderService) SubmitOrder(ctx context.Context, input SubmitOrderInput) (*models.Order, error) {
	start := time.Now()
	defer s.metrics.ObserveSubmitOrder(start)

	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	order := &models.Order{
		Status: models.StatusNew,
		Items:  make([]models.OrderItem, 0, len(input.Items)),
	}
	for i, in := range input.Items {
		item := models.OrderItem{
			MenuItemID:    in.MenuItemID,
			Name:          strings.TrimSpace(in.Name),
			Price:         *in.Price,
			Quantity:      in.Quantity,
			Notes:         in.Notes,
			Customization: in.Customization,
		}
		line := item.LineTotal()
		if line > maxOrderTotal-order.TotalAmount {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("items[%d].price", i),
				Message: fmt.Sprintf("order total must not exceed %d", int64(maxOrderTotal)),
			}
		}
		order.TotalAmount += line
		order.Items = append(order.Items, item)
	}

	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.nextOrderNumber()
		err = s.store.CreateOrder(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			break
		}
		s.metrics.IncrementOrderNumberCollisions()
		s.logger.Warn("order number collision, retrying",
			"order_number", order.OrderNumber, "attempt", attempt)
	}
	if err != nil {
		s.logger.Error("failed to create order", "error", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	full, err := s.store.GetFullOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", order.ID, err)
	}

	s.metrics.IncrementOrdersSubmitted()
	s.logger.Info("order submitted",
		"order_id", full.ID,
		"order_number", full.OrderNumber,
		"items", len(full.Items),
		"total_amount", full.TotalAmount)

	s.notifier.OrderCreated(context.WithoutCancel(ctx), full)
	return full, nil
}

// UpdateStatus writes a new status. Any known status may follow any other;
// only values outside the enum are rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, &ValidationError{
			Field:   "status",
			Message: "must be one of " + joinStatuses(models.AllStatuses),
		}
	}

	order, err := s.store.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update order status", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("failed to update order %d: %w", orderID, err)
	}

	s.metrics.IncrementStatusUpdates(string(status))
	s.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)

	s.notifier.OrderUpdated(context.WithoutCancel(ctx), order)
	return order, nil
}

// ActiveOrders returns orders that are new, preparing or ready, newest first
func (s *OrderService) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.ListOrdersByStatus(ctx, models.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load active orders: %w", err)
	}
	return orders, nil
}

// GetFullOrder returns an order with its items or repository.ErrNotFound
func (s *OrderService) GetFullOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.store.GetFullOrder(ctx, orderID)
}

// ListOrders returns the full order history, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// PopularItems ranks menu items by quantity sold over the trailing window
func (s *OrderService) PopularItems(ctx context.Context, window time.Duration, limit int) ([]models.PopularItem, error) {
	if window <= 0 {
		return nil, &ValidationError{Field: "days", Message: "must be greater than 0"}
	}
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Message: "must be greater than 0"}
	}
	items, err := s.store.PopularItems(ctx, s.now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular items: %w", err)
	}
	return items, nil
}

// nextOrderNumber is the last six digits of the millisecond clock followed by
// a random three-digit suffix. It is a display identifier and may collide.
func (s *OrderService) nextOrderNumber() string {
	tail := s.now().UnixMilli() % 1_000_000
	return fmt.Sprintf("%06d%03d", tail, s.randIntN(1000))
}

func (s *OrderService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	return toValidationError(verrs[0])
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func toValidationError(fe validator.FieldError) *ValidationError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			msg = fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		} else {
			msg = fmt.Sprintf("must be at least %s", fe.Param())
		}
	case "max":
		if fe.Kind() == reflect.Slice {
			msg = fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		} else {
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		}
	case "gt":
		msg = fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		msg = fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		msg = fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ValidationError{Field: field, Message: msg}
}

func joinStatuses(statuses []models.OrderStatus) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
