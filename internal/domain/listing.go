package domain

import "time"

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

// Listing is a postable offer (a good or a service) owned by an artisan.
// Orders are always placed against a listing; the order manager reads the
// owner and price from here at creation time.
type Listing struct {
	ID          string        `json:"id"`
	ArtisanID   string        `json:"artisan_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Category    string        `json:"category"`
	Status      ListingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
