package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/canteenhq/canteen-api/config"
	"github.com/canteenhq/canteen-api/models"
	"github.com/canteenhq/canteen-api/realtime"
	"github.com/canteenhq/canteen-api/services"
	"github.com/canteenhq/canteen-api/utils"
	"github.com/gin-gonic/gin"
)

// OrderItemRequest is one requested line of a new order
type OrderItemRequest struct {
	ItemRef   string  `json:"item_ref"`
	Name      string  `json:"name" binding:"required"`
	UnitPrice float64 `json:"unit_price" binding:"gte=0"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	CustomerName    string             `json:"customer_name" binding:"required"`
	CustomerContact string             `json:"customer_contact" binding:"required"`
	PaymentMethod   string             `json:"payment_method" binding:"required,oneof=online offline"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder handles POST /api/v1/orders - a customer places an order
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, ok := insertOrder(c, &req, models.PaymentMethod(req.PaymentMethod), models.PaymentStatusPending)
	if !ok {
		return
	}

	realtime.Publish(realtime.OrderEvent(realtime.EventNewOrder, order))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// insertOrder builds and persists a pending order from the request. The
// server recomputes the total from the items; client-supplied totals are
// never trusted. Replies with an error envelope and returns ok=false on
// failure.
func insertOrder(c *gin.Context, req *CreateOrderRequest, method models.PaymentMethod, paymentStatus models.PaymentStatus) (*models.Order, bool) {
	db := config.GetDB()

	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			ItemRef:   item.ItemRef,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	order := models.Order{
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		Items:           items,
		Status:          models.StatusPending,
		PaymentMethod:   method,
		PaymentStatus:   paymentStatus,
	}
	order.Total = order.ComputeTotal()

	// The random order-number suffix can collide with an existing row;
	// regenerate and retry a few times before giving up
	for attempt := 0; attempt < 5; attempt++ {
		number, err := utils.GenerateOrderNumber(time.Now())
		if err != nil {
			break
		}
		order.OrderNumber = number

		err = db.Create(&order).Error
		if err == nil {
			return &order, true
		}
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			continue
		}
		break
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": "Failed to create order",
		},
	})
	return nil, false
}

// ListOrders handles GET /api/v1/orders?role=staff - the staff order list.
// Terminals filter by status (kitchen asks for preparing, pickup for ready).
func ListOrders(c *gin.Context) {
	db := config.GetDB()

	query := db.Preload("Items").Order("created_at asc")

	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(models.Status(status)) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Unknown status filter",
				},
			})
			return
		}
		query = query.Where("status = ?", status)

		// Unpaid offline orders are held out of every preparation view; the
		// transition gate already makes this state unreachable, the filter
		// keeps it unobservable as well
		if models.Status(status) == models.StatusPreparing {
			query = query.Where("NOT (payment_method = ? AND payment_status = ?)",
				models.PaymentMethodOffline, models.PaymentStatusPending)
		}
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - the customer-facing order read.
// Once the order is ready, the response carries the pickup code the customer
// must present at the counter.
func GetOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("Items").First(&order, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatusRequest represents the request body for a status transition
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	OTP    string `json:"otp"`
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status - a staff terminal
// moves an order along the pipeline. Marking picked_up requires the pickup
// code in the body.
func UpdateOrderStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	target := models.Status(req.Status)
	if target == models.StatusPickedUp && !services.ValidOTPFormat(req.OTP) {
		// Reject malformed codes before touching the store
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "OTP_MISMATCH",
				"message": "Pickup code must be four digits",
			},
		})
		return
	}

	order, err := services.ApplyTransition(config.GetDB(), id, target, req.OTP)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	for _, event := range realtime.StatusEvents(order) {
		realtime.Publish(event)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// respondTransitionError maps service errors to envelope responses
func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
	case errors.Is(err, services.ErrNotPayable):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_PAYABLE",
				"message": "Payment must be confirmed before preparation",
			},
		})
	case errors.Is(err, services.ErrOtpMismatch):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "OTP_MISMATCH",
				"message": "Pickup code does not match",
			},
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": err.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order",
			},
		})
	}
}

// orderIDParam parses the :id path parameter, replying with an error envelope
// on garbage input
func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Order id must be a positive integer",
			},
		})
		return 0, false
	}
	return uint(id), true
}
