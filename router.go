package main

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/restaurant-pos-api/config"
	"github.com/kendall-kelly/restaurant-pos-api/controllers"
	"github.com/kendall-kelly/restaurant-pos-api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter builds the HTTP surface: public ordering and kitchen routes,
// the websocket endpoint, metrics and the bearer-gated admin panel
func setupRouter(app *application) (*gin.Engine, error) {
	requireAdmin, err := middleware.RequireAdmin(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up admin authentication: %w", err)
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(app.logger),
		gin.Recovery(),
		cors.New(corsConfig(app.cfg.CORSAllowedOrigins)),
	)

	orderController := controllers.NewOrderController(app.orders, app.cfg.PopularWindowDays, app.logger)
	menuController := controllers.NewMenuController(app.store, app.images, app.logger)
	realtimeController := controllers.NewRealtimeController(app.hub, app.orders, app.cfg.CORSAllowedOrigins, app.logger)
	adminController := controllers.NewAdminController(app.auth, app.store, app.images, app.housekeeper, app.logger)

	api := router.Group("/api")
	{
		api.GET("/health", healthCheck)
		api.GET("/database/status", app.databaseStatus)

		api.GET("/categories", menuController.ListCategories)
		api.GET("/categories/:id/items", menuController.ListCategoryItems)
		api.GET("/menu-items", menuController.ListMenuItems)

		api.POST("/orders", orderController.SubmitOrder)
		api.GET("/orders", orderController.ListOrders)
		api.GET("/orders/active", orderController.ListActiveOrders)
		api.GET("/orders/:id", orderController.GetOrder)
		api.PATCH("/orders/:id/status", orderController.UpdateOrderStatus)
		api.GET("/popular-items", orderController.PopularItems)

		if !app.cfg.S3Enabled() {
			uploadController := controllers.NewUploadController(app.cfg.UploadDir)
			api.GET("/uploads/:filename", uploadController.GetUploadedImage)
		}

		admin := api.Group("/admin")
		admin.POST("/login", adminController.Login)

		protected := admin.Group("", requireAdmin)
		{
			protected.GET("/session", adminController.Session)

			protected.POST("/categories", adminController.CreateCategory)
			protected.PUT("/categories/:id", adminController.UpdateCategory)
			protected.DELETE("/categories/:id", adminController.DeleteCategory)

			protected.POST("/menu-items", adminController.CreateMenuItem)
			protected.PUT("/menu-items/:id", adminController.UpdateMenuItem)
			protected.DELETE("/menu-items/:id", adminController.DeleteMenuItem)
			protected.POST("/menu-items/:id/image", adminController.UploadMenuItemImage)

			protected.GET("/stats", adminController.Stats)
			protected.POST("/housekeeping/run", adminController.RunHousekeeping)
		}
	}

	router.GET("/ws", realtimeController.ServeWS)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})))

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Restaurant POS API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func (app *application) databaseStatus(c *gin.Context) {
	if app.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Using in-memory store",
			"driver":  config.DriverMemory,
			"tables":  []string{},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := app.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		app.logger.Error("database ping failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := app.db.Migrator().GetTables()
	if err != nil {
		app.logger.Error("failed to list tables", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}
	slices.Sort(tables)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"driver":  app.cfg.StorageDriver,
		"tables":  tables,
	})
}
