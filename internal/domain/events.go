package domain

import "time"

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderCancelled     EventType = "order.cancelled"
)

// OrderEvent is published to the order.events topic after a successful
// state change. Delivery is best effort; publishing failures are logged
// and never surfaced to the API caller.
type OrderEvent struct {
	Type      EventType   `json:"type"`
	OrderID   string      `json:"order_id"`
	ClientID  string      `json:"client_id"`
	ArtisanID string      `json:"artisan_id"`
	ListingID string      `json:"listing_id,omitempty"`
	Price     float64     `json:"price,omitempty"`
	OldStatus OrderStatus `json:"old_status,omitempty"`
	NewStatus OrderStatus `json:"new_status,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
