package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/canteenhq/canteen-api/models"
)

// IssueOTP generates a 4-digit pickup code, uniform over 0000-9999.
// Collisions across orders are acceptable; the code only has to deter guessing.
func IssueOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pickup code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// ValidOTPFormat reports whether code is exactly four ASCII digits.
// Callers should reject malformed input with this before touching the store.
func ValidOTPFormat(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// VerifyOTP checks the supplied code against the order's issued pickup code.
// An order without an issued code never verifies.
func VerifyOTP(order *models.Order, code string) bool {
	if order.OTP == nil {
		return false
	}
	if !ValidOTPFormat(code) {
		return false
	}
	return *order.OTP == code
}
