package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusRejected,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// orderTransitions is the allowed lifecycle graph. Rejected, completed and
// cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusAccepted, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusAccepted: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle step. Re-asserting the current status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodInPerson PaymentMethod = "in-person"
	PaymentMethodOnline   PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodInPerson || m == PaymentMethodOnline
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid || s == PaymentStatusRefunded
}

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

type Address struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zip_code"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Order is a transaction request by a client against a listing owned by an
// artisan. Client, artisan and price are derived from the listing at
// creation time and never accepted from the request body.
type Order struct {
	ID                    string         `json:"id"`
	ClientID              string         `json:"client_id"`
	ArtisanID             string         `json:"artisan_id"`
	ListingID             string         `json:"listing_id"`
	Description           string         `json:"description,omitempty"`
	RequestedDeliveryDate *time.Time     `json:"requested_delivery_date,omitempty"`
	Status                OrderStatus    `json:"status"`
	Price                 float64        `json:"price"`
	PaymentMethod         PaymentMethod  `json:"payment_method"`
	PaymentStatus         PaymentStatus  `json:"payment_status"`
	DeliveryMethod        DeliveryMethod `json:"delivery_method"`
	DeliveryAddress       *Address       `json:"delivery_address,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}
