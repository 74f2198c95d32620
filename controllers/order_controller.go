package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"github.com/kendall-kelly/restaurant-pos-api/services"
)

const defaultPopularLimit = 5

// UpdateStatusRequest represents the request body for changing an order's status
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// OrderController serves the ordering and kitchen screens
type OrderController struct {
	orders        *services.OrderService
	popularWindow time.Duration
	logger        *slog.Logger
}

// NewOrderController creates an order controller. popularWindowDays is the
// default look-back for popular items.
func NewOrderController(orders *services.OrderService, popularWindowDays int, logger *slog.Logger) *OrderController {
	return &OrderController{
		orders:        orders,
		popularWindow: time.Duration(popularWindowDays) * 24 * time.Hour,
		logger:        logger,
	}
}

// SubmitOrder handles POST /api/orders - creates a new order with status "new"
func (oc *OrderController) SubmitOrder(c *gin.Context) {
	var req services.SubmitOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.SubmitOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, oc.logger, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListActiveOrders handles GET /api/orders/active - orders still in the kitchen, newest first
func (oc *OrderController) ListActiveOrders(c *gin.Context) {
	orders, err := oc.orders.ActiveOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, oc.logger, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// ListOrders handles GET /api/orders - the full order history, newest first
func (oc *OrderController) ListOrders(c *gin.Context) {
	orders, err := oc.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, oc.logger, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/orders/:id - one order with its items
func (oc *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := oc.orders.GetFullOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		respondServiceError(c, oc.logger, err, "Failed to retrieve order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		respondServiceError(c, oc.logger, err, "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// PopularItems handles GET /api/popular-items?days=7&limit=5
func (oc *OrderController) PopularItems(c *gin.Context) {
	window := oc.popularWindow
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "days must be a number")
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	limit := defaultPopularLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a number")
			return
		}
		limit = n
	}

	items, err := oc.orders.PopularItems(c.Request.Context(), window, limit)
	if err != nil {
		respondServiceError(c, oc.logger, err, "Failed to retrieve popular items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}
