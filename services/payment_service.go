package services

import (
	"errors"
	"fmt"

	"github.com/canteenhq/canteen-api/models"
	"gorm.io/gorm"
)

// IsPayable reports whether the order may enter the preparation pipeline.
// Both payment methods converge on the paid flag: online orders are marked by
// the gateway callback, offline orders by explicit staff confirmation, and
// walk-in orders are created paid.
func IsPayable(order *models.Order) bool {
	return order.PaymentStatus == models.PaymentStatusPaid
}

// ConfirmPayment marks the order paid. It is idempotent: confirming an
// already-paid order reports changed=false so callers know not to broadcast
// a second payment-confirmed event.
func ConfirmPayment(db *gorm.DB, orderID uint) (*models.Order, bool, error) {
	result := db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Update("payment_status", models.PaymentStatusPaid)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to confirm payment: %w", result.Error)
	}
	changed := result.RowsAffected > 0

	var order models.Order
	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrOrderNotFound
		}
		return nil, false, fmt.Errorf("failed to load order: %w", err)
	}

	return &order, changed, nil
}
