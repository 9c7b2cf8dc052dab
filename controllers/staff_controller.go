package controllers

import (
	"errors"
	"net/http"

	"github.com/canteenhq/canteen-api/config"
	"github.com/canteenhq/canteen-api/models"
	"github.com/canteenhq/canteen-api/realtime"
	"github.com/canteenhq/canteen-api/services"
	"github.com/gin-gonic/gin"
)

// ConfirmPaymentRequest represents the request body for a staff payment confirmation
type ConfirmPaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=paid"`
}

// ConfirmPayment handles PUT /api/v1/staff/orders/:id/payment - a staff member
// confirms cash receipt for an offline order (or re-confirms, which is a no-op)
func ConfirmPayment(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req ConfirmPaymentRequest
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

	order, changed, err := services.ConfirmPayment(config.GetDB(), id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to confirm payment",
			},
		})
		return
	}

	// Only an actual state change is broadcast; replays stay silent
	if changed {
		realtime.Publish(realtime.OrderEvent(realtime.EventPaymentConfirmed, order))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CreateManualOrder handles POST /api/v1/staff/manual-order - a walk-in order
// entered at the counter. Payment is taken on the spot, so the order is
// created paid and immediately eligible for preparation.
func CreateManualOrder(c *gin.Context) {
	var req struct {
		CustomerName    string             `json:"customer_name" binding:"required"`
		CustomerContact string             `json:"customer_contact" binding:"required"`
		Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	}
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

	orderReq := CreateOrderRequest{
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		Items:           req.Items,
	}
	order, ok := insertOrder(c, &orderReq, models.PaymentMethodOffline, models.PaymentStatusPaid)
	if !ok {
		return
	}

	realtime.Publish(realtime.OrderEvent(realtime.EventNewOrder, order))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// statusCount is one row of the dashboard status breakdown
type statusCount struct {
	Status models.Status `json:"status"`
	Count  int64         `json:"count"`
}

// GetStats handles GET /api/v1/staff/stats - dashboard summary: orders per
// status plus revenue across paid orders
func GetStats(c *gin.Context) {
	db := config.GetDB()

	var counts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to compute stats",
			},
		})
		return
	}

	var revenue float64
	if err := db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Select("coalesce(sum(total), 0)").
		Scan(&revenue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to compute revenue",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status_counts": counts,
			"paid_revenue":  revenue,
		},
	})
}
