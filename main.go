package main

import (
	"log"
	"net/http"

	"github.com/canteenhq/canteen-api/config"
	"github.com/canteenhq/canteen-api/controllers"
	"github.com/canteenhq/canteen-api/middleware"
	"github.com/canteenhq/canteen-api/models"
	"github.com/canteenhq/canteen-api/realtime"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Basic logging
	log.Println("Starting Canteen Order Pipeline API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Start the broadcast hub; terminals join the staff room over /ws
	var validate realtime.TokenValidator
	if cfg.Auth0Domain != "" {
		validate, err = middleware.SocketTokenValidator(cfg)
		if err != nil {
			log.Fatalf("Failed to set up the socket token validator: %v", err)
		}
	} else {
		log.Println("AUTH0_DOMAIN not set, socket joins are unauthenticated (development only)")
	}
	hub := realtime.NewHub(validate)
	go hub.Run()
	realtime.SetHub(hub)

	// Initialize Gin router
	router := setupRouter(cfg)

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter configures middleware and the full route surface
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Terminal-Session"},
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Customer-facing endpoints
		v1.POST("/orders", controllers.CreateOrder)
		v1.GET("/orders/:id", controllers.GetOrder)

		// Online payment gateway callback
		v1.POST("/payments/callback", controllers.PaymentCallback)

		// Staff endpoints require a valid JWT carrying the staff role
		staff := v1.Group("", middleware.EnsureValidToken(cfg), middleware.RequireStaff())
		{
			staff.GET("/orders", controllers.ListOrders)
			staff.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
			staff.PUT("/staff/orders/:id/payment", controllers.ConfirmPayment)
			staff.POST("/staff/manual-order", controllers.CreateManualOrder)
			staff.GET("/staff/kitchen/board", controllers.GetKitchenBoard)
			staff.POST("/staff/kitchen/laps", controllers.DeclareKitchenLap)
			staff.GET("/staff/stats", controllers.GetStats)
		}
	}

	// Websocket endpoint; authentication happens on the socket via the
	// join-staff-room control frame
	router.GET("/ws", controllers.HandleWebSocket)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Canteen Order Pipeline API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
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
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Report which pipeline tables exist
	tables := []string{}
	for _, table := range []string{"orders", "order_items"} {
		if db.Migrator().HasTable(table) {
			tables = append(tables, table)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
