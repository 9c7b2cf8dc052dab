package models

import (
	"time"

	"gorm.io/gorm"
)

// Order represents a canteen order moving through the pipeline
type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderNumber     string         `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerName    string         `gorm:"not null" json:"customer_name"`
	CustomerContact string         `gorm:"not null" json:"customer_contact"`
	Items           []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	Total           float64        `gorm:"not null" json:"total"` // always Σ unit_price × quantity, computed server-side
	Status          Status         `gorm:"not null;default:'pending';index" json:"status"`
	PaymentMethod   PaymentMethod  `gorm:"not null" json:"payment_method"`
	PaymentStatus   PaymentStatus  `gorm:"not null;default:'pending'" json:"payment_status"`
	OTP             *string        `gorm:"column:otp" json:"otp,omitempty"` // nil until the order reaches ready; cleared at pickup
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a single line of an order
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ItemRef   string  `gorm:"not null" json:"item_ref"` // menu catalog reference, opaque to the pipeline
	Name      string  `gorm:"not null" json:"name"`
	UnitPrice float64 `gorm:"not null;check:unit_price >= 0" json:"unit_price"`
	Quantity  int     `gorm:"not null;check:quantity > 0" json:"quantity"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// ComputeTotal returns the sum of unit_price × quantity over the order's items
func (o *Order) ComputeTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// IsActive reports whether the order is still in flight (not completed or cancelled)
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}
