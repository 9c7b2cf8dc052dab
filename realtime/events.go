package realtime

import (
	"time"

	"github.com/canteenhq/canteen-api/models"
)

// RoomStaff is the broadcast group every authenticated staff terminal joins
const RoomStaff = "staff"

// Domain event types published to the staff room. Payloads are hints only:
// terminals re-fetch the order list on receipt, the store stays the source of
// truth. Delivery is at-least-once, ordered per socket.
const (
	EventNewOrder           = "new-order"
	EventOrderStatusUpdated = "order-status-updated"
	EventOrderMovedToPickup = "order-moved-to-pickup"
	EventOrderCompleted     = "order-completed"
	EventPaymentConfirmed   = "payment-confirmed"
)

// Event is the wire payload broadcast to a room
type Event struct {
	Type        string        `json:"type"`
	OrderID     uint          `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	Status      models.Status `json:"status,omitempty"`
	At          time.Time     `json:"at"`
}

// OrderEvent builds an event for the given order. The pickup code is never
// included; terminals that need it fetch the order.
func OrderEvent(eventType string, order *models.Order) Event {
	return Event{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		At:          time.Now(),
	}
}

// StatusEvents maps a completed transition to the events it should broadcast
func StatusEvents(order *models.Order) []Event {
	events := []Event{OrderEvent(EventOrderStatusUpdated, order)}
	switch order.Status {
	case models.StatusReady:
		events = append(events, OrderEvent(EventOrderMovedToPickup, order))
	case models.StatusPickedUp, models.StatusCompleted:
		events = append(events, OrderEvent(EventOrderCompleted, order))
	}
	return events
}
