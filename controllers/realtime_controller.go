package controllers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/restaurant-pos-api/realtime"
)

// RealtimeController upgrades screens to the websocket channel
type RealtimeController struct {
	hub      *realtime.Hub
	orders   realtime.Orders
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewRealtimeController creates a realtime controller. allowedOrigins follows
// CORS_ALLOWED_ORIGINS; "*" accepts any origin.
func NewRealtimeController(hub *realtime.Hub, orders realtime.Orders, allowedOrigins []string, logger *slog.Logger) *RealtimeController {
	return &RealtimeController{
		hub:    hub,
		orders: orders,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// ServeWS handles GET /ws
func (rc *RealtimeController) ServeWS(c *gin.Context) {
	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		rc.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	rc.hub.Serve(c.Request.Context(), conn, rc.orders)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
