package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/canteenhq/canteen-api/models"
	"gorm.io/gorm"
)

// ApplyTransition moves an order along one edge of the status graph.
//
// Gates enforced on top of the edge set:
//   - pending -> preparing requires the payment gate to have cleared the order
//   - ready -> picked_up requires a matching pickup code
//
// Side effects:
//   - entering ready issues the pickup code (exactly once, the edge set makes
//     re-entry impossible)
//   - leaving ready invalidates the code (single use)
//
// The status write is a compare-and-swap on the previously observed status, so
// two terminals racing on the same order have the loser rejected with
// ErrInvalidTransition instead of double-applying the transition.
func ApplyTransition(db *gorm.DB, orderID uint, target models.Status, suppliedOTP string) (*models.Order, error) {
	if !models.ValidStatus(target) {
		return nil, &TransitionError{From: "", To: target}
	}

	var order models.Order
	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	from := order.Status
	if !models.CanTransition(from, target) {
		return nil, &TransitionError{From: from, To: target}
	}

	updates := map[string]interface{}{
		"status":     target,
		"updated_at": time.Now(),
	}

	switch target {
	case models.StatusPreparing:
		if !IsPayable(&order) {
			return nil, ErrNotPayable
		}
	case models.StatusReady:
		otp, err := IssueOTP()
		if err != nil {
			return nil, err
		}
		updates["otp"] = otp
	case models.StatusPickedUp:
		if !VerifyOTP(&order, suppliedOTP) {
			return nil, ErrOtpMismatch
		}
		updates["otp"] = nil
	}

	// Guard on the observed status: if a concurrent writer moved the order
	// first, zero rows change and the caller gets a clean rejection.
	result := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &TransitionError{From: from, To: target}
	}

	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}
