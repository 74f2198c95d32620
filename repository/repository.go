// Package repository is the persistence layer. Two interchangeable backends
// implement Store: MemoryStore for development and tests, and GormStore over
// SQLite or PostgreSQL for production.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kendall-kelly/restaurant-pos-api/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateOrderNumber is returned when an order number is already taken
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	// ErrCategoryInUse is returned when deleting a category that still has menu items
	ErrCategoryInUse = errors.New("category still has menu items")
	// ErrUnknownCategory is returned when a menu item references a missing category
	ErrUnknownCategory = errors.New("category does not exist")
)

// MenuStore holds categories and menu items
type MenuStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error

	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	ListMenuItemsByCategory(ctx context.Context, categoryID uint) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id uint) error
}

// OrderStore holds orders and their line items
type OrderStore interface {
	// CreateOrder persists the order and all of order.Items as one unit.
	// IDs and timestamps are written back into order.
	CreateOrder(ctx context.Context, order *models.Order) error
	// GetOrder returns the order row without items
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	// GetFullOrder returns the order joined with its items
	GetFullOrder(ctx context.Context, id uint) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error)
	// ListOrdersByStatus returns full orders in any of the statuses, newest first
	ListOrdersByStatus(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error)
	// ListOrders returns every full order, newest first
	ListOrders(ctx context.Context) ([]models.Order, error)
	PopularItems(ctx context.Context, since time.Time, limit int) ([]models.PopularItem, error)
}

// StatsStore backs the housekeeping job
type StatsStore interface {
	// SummarizeOrders aggregates orders created in [from, to)
	SummarizeOrders(ctx context.Context, from, to time.Time) (models.DailyStat, error)
	// SaveDailyStat inserts or replaces the row for stat.Date
	SaveDailyStat(ctx context.Context, stat *models.DailyStat) error
	ListDailyStats(ctx context.Context) ([]models.DailyStat, error)
	// DeleteOrdersBefore removes orders (and their items) created before cutoff
	DeleteOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore holds admin accounts
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// SaveUser inserts or updates the user matched by username
	SaveUser(ctx context.Context, user *models.User) error
}

// Store is the full persistence contract
type Store interface {
	MenuStore
	OrderStore
	StatsStore
	UserStore
}
