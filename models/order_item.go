package models

import (
	"time"
)

// Customization is the optional per-line payload chosen on the ordering screen.
// It is stored as-is; any price impact is already folded into OrderItem.Price.
type Customization struct {
	Flavor   string   `json:"flavor,omitempty"`
	Meal     bool     `json:"meal,omitempty"`
	Spicy    bool     `json:"spicy,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
	ChipType string   `json:"chipType,omitempty"`
}

// OrderItem is a line of an order. Name and Price are snapshots taken when the
// order was placed so later menu edits don't rewrite history.
type OrderItem struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderID       uint           `gorm:"not null;index" json:"orderId"`
	MenuItemID    uint           `gorm:"not null;index" json:"menuItemId"`
	Name          string         `gorm:"not null" json:"name"`
	Price         int64          `gorm:"not null" json:"price"`
	Quantity      int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	Notes         *string        `json:"notes,omitempty"`
	Customization *Customization `gorm:"type:text;serializer:json" json:"customization,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is price times quantity
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}
