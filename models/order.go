package models

import (
	"time"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every accepted status value
var AllStatuses = []OrderStatus{
	StatusNew,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusCompleted,
	StatusCancelled,
}

// ActiveStatuses are the statuses shown on the kitchen display
var ActiveStatuses = []OrderStatus{StatusNew, StatusPreparing, StatusReady}

// Valid reports whether s is one of the six known statuses
func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsActive reports whether the order still belongs on the kitchen display
func (s OrderStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// Order represents a customer order. Items is populated for "full order" reads.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null" json:"orderNumber"` // display identifier, not the primary key
	Status      OrderStatus `gorm:"not null;index" json:"status"`
	TotalAmount int64       `gorm:"not null" json:"totalAmount"` // minor currency unit
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// PopularItem is an aggregated view of how often a menu item was ordered
type PopularItem struct {
	MenuItemID uint   `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	Revenue    int64  `json:"revenue"`
}
