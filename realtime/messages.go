package realtime

import "github.com/kendall-kelly/restaurant-pos-api/models"

// Message types on the wire. Every frame is a JSON object with a "type" key.
const (
	TypeRegister     = "register"
	TypeUpdateStatus = "update_status"
	TypeNewOrder     = "new_order"
	TypeOrderUpdate  = "order_update"
	TypeActiveOrders = "active_orders"
	TypeError        = "error"
)

// Inbound is any client to server message; fields unused by Type are zero
type Inbound struct {
	Type      string             `json:"type"`
	IsKitchen bool               `json:"isKitchen"`
	OrderID   uint               `json:"orderId"`
	Status    models.OrderStatus `json:"status"`
}

// OrderMessage carries new_order and order_update events
type OrderMessage struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

// ActiveOrdersMessage is the snapshot sent to a kitchen screen on register
type ActiveOrdersMessage struct {
	Type   string         `json:"type"`
	Orders []models.Order `json:"orders"`
}

// ErrorMessage reports a failed command to the client that sent it
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
