package services

import (
	"context"

	"github.com/kendall-kelly/restaurant-pos-api/models"
)

// OrderNotifier receives order lifecycle events. Implementations are
// best-effort: they log their own failures and never block the caller for long.
type OrderNotifier interface {
	// OrderCreated is sent for a newly submitted order (kitchen screens only)
	OrderCreated(ctx context.Context, order *models.Order)
	// OrderUpdated is sent after a status change (every screen)
	OrderUpdated(ctx context.Context, order *models.Order)
}

// Notifiers fans each event out to every notifier in the list
type Notifiers []OrderNotifier

func (n Notifiers) OrderCreated(ctx context.Context, order *models.Order) {
	for _, notifier := range n {
		notifier.OrderCreated(ctx, order)
	}
}

func (n Notifiers) OrderUpdated(ctx context.Context, order *models.Order) {
	for _, notifier := range n {
		notifier.OrderUpdated(ctx, order)
	}
}
