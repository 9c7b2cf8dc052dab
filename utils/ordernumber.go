package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OrderNumberPrefix is the fixed prefix of every canteen order number
const OrderNumberPrefix = "CTN"

// GenerateOrderNumber produces a human-readable order number of the form
// CTN-YYYYMMDD-XXXX. The random suffix keeps numbers unguessable across
// terminals without coordinating a counter; the unique index on the column
// catches the rare collision and the caller retries.
func GenerateOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", OrderNumberPrefix, now.Format("20060102"), n.Int64()), nil
}
