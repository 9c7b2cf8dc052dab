package controllers

import (
	"errors"
	"net/http"

	"github.com/canteenhq/canteen-api/config"
	"github.com/canteenhq/canteen-api/realtime"
	"github.com/canteenhq/canteen-api/services"
	"github.com/gin-gonic/gin"
)

// PaymentCallbackRequest is the body the online payment gateway posts once a
// payment clears
type PaymentCallbackRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// PaymentCallback handles POST /api/v1/payments/callback - the asynchronous
// confirmation from the online payment gateway. Replayed callbacks are
// harmless: the confirmation is idempotent and only a real change broadcasts.
func PaymentCallback(c *gin.Context) {
	var req PaymentCallbackRequest
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

	order, changed, err := services.ConfirmPayment(config.GetDB(), req.OrderID)
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

	if changed {
		realtime.Publish(realtime.OrderEvent(realtime.EventPaymentConfirmed, order))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
