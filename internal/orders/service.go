package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/selimbh/craftmarket/internal/auth"
	"github.com/selimbh/craftmarket/internal/domain"
	"github.com/selimbh/craftmarket/internal/pagination"
	"github.com/selimbh/craftmarket/internal/policy"
)

// Store is the order persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter, opts pagination.Options) (pagination.Page[domain.Order], error)
}

// ListingStore is the read-only slice of the listing repository used to
// resolve owner and price at creation time.
type ListingStore interface {
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
}

// Publisher emits order lifecycle events. Nil disables publication.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

var meter = otel.Meter("orders")

// Service implements the order lifecycle: creation from a listing,
// role-scoped visibility, and permission-gated mutation.
type Service struct {
	store    Store
	listings ListingStore
	events   Publisher
	logger   *slog.Logger

	createdCounter      metric.Int64Counter
	statusChangeCounter metric.Int64Counter
}

func NewService(store Store, listings ListingStore, events Publisher, logger *slog.Logger) *Service {
	createdCounter, _ := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders created"))
	statusChangeCounter, _ := meter.Int64Counter("orders.status_changes",
		metric.WithDescription("Order status transitions applied"))

	return &Service{
		store:               store,
		listings:            listings,
		events:              events,
		logger:              logger,
		createdCounter:      createdCounter,
		statusChangeCounter: statusChangeCounter,
	}
}

// CreateInput is the client-supplied part of an order. Client, artisan
// and price deliberately have no fields here.
type CreateInput struct {
	ListingID             string                `json:"listing"`
	Description           string                `json:"description"`
	RequestedDeliveryDate *time.Time            `json:"requested_delivery_date"`
	PaymentMethod         domain.PaymentMethod  `json:"payment_method"`
	DeliveryMethod        domain.DeliveryMethod `json:"delivery_method"`
	DeliveryAddress       *domain.Address       `json:"delivery_address"`
}

func (in CreateInput) validate() error {
	if in.ListingID == "" {
		return domain.Invalid("listing is required")
	}
	if !in.PaymentMethod.Valid() {
		return domain.Invalid("payment_method must be in-person or online")
	}
	if !in.DeliveryMethod.Valid() {
		return domain.Invalid("delivery_method must be delivery or pickup")
	}
	if in.DeliveryMethod == domain.DeliveryMethodDelivery {
		if in.DeliveryAddress == nil {
			return domain.Invalid("delivery_address is required for delivery orders")
		}
		a := in.DeliveryAddress
		if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" || a.Country == "" {
			return domain.Invalid("delivery_address must include street, city, state, zip_code and country")
		}
	}
	return nil
}

// Create places an order for the requester against a listing. The client
// is always the requester; the artisan and price come from the listing.
func (s *Service) Create(ctx context.Context, requesterID string, in CreateInput) (*domain.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, fmt.Errorf("resolve listing: %w", err)
	}
	if listing == nil || listing.Status != domain.ListingStatusActive {
		return nil, fmt.Errorf("listing %s: %w", in.ListingID, domain.ErrNotFound)
	}
	if listing.ArtisanID == requesterID {
		return nil, domain.Invalid("cannot order your own listing")
	}

	order := &domain.Order{
		ClientID:              requesterID,
		ArtisanID:             listing.ArtisanID,
		ListingID:             listing.ID,
		Description:           in.Description,
		RequestedDeliveryDate: in.RequestedDeliveryDate,
		Status:                domain.OrderStatusPending,
		Price:                 listing.Price,
		PaymentMethod:         in.PaymentMethod,
		PaymentStatus:         domain.PaymentStatusPending,
		DeliveryMethod:        in.DeliveryMethod,
		DeliveryAddress:       in.DeliveryAddress,
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.createdCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod))))

	s.publish(ctx, domain.OrderEvent{
		Type:      domain.EventOrderCreated,
		OrderID:   order.ID,
		ClientID:  order.ClientID,
		ArtisanID: order.ArtisanID,
		ListingID: order.ListingID,
		Price:     order.Price,
		NewStatus: order.Status,
		Timestamp: order.CreatedAt,
	})

	return order, nil
}

// ListFilter is the caller-controlled part of the visibility filter.
type ListFilter struct {
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
}

// List returns the orders visible to the requester. Clients and artisans
// only ever see their own side of the marketplace regardless of the
// submitted filter; admins see everything.
func (s *Service) List(ctx context.Context, requester auth.Identity, filter ListFilter, opts pagination.Options) (pagination.Page[domain.Order], error) {
	f := Filter{
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
	}

	switch requester.Role {
	case domain.RoleClient:
		f.ClientID = requester.UserID
	case domain.RoleArtisan:
		f.ArtisanID = requester.UserID
	case domain.RoleAdmin:
		// no implicit filter
	default:
		return pagination.Page[domain.Order]{}, domain.ErrForbidden
	}

	return s.store.List(ctx, f, opts)
}

// Get loads one order, applying the read policy.
func (s *Service) Get(ctx context.Context, requester auth.Identity, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	if !policy.CanReadOrder(requester.Role, requester.UserID, order) {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Status                *domain.OrderStatus   `json:"status"`
	PaymentStatus         *domain.PaymentStatus `json:"payment_status"`
	Description           *string               `json:"description"`
	RequestedDeliveryDate *time.Time            `json:"requested_delivery_date"`
}

// Update applies a permission-filtered partial update. Fields outside the
// actor's allowed set are dropped silently, matching the policy contract.
func (s *Service) Update(ctx context.Context, requester auth.Identity, orderID string, in UpdateInput) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	decision := policy.DecideOrderUpdate(requester.Role, requester.UserID, order)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}

	oldStatus := order.Status

	if in.Status != nil && decision.AllowsField("status") {
		next := *in.Status
		if !next.Valid() {
			return nil, domain.Invalid("invalid status value")
		}
		if !order.Status.CanTransitionTo(next) {
			return nil, domain.Invalid(fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
		}
		order.Status = next
	}
	if in.PaymentStatus != nil && decision.AllowsField("payment_status") {
		if !in.PaymentStatus.Valid() {
			return nil, domain.Invalid("invalid payment_status value")
		}
		order.PaymentStatus = *in.PaymentStatus
	}
	if in.Description != nil && decision.AllowsField("description") {
		order.Description = *in.Description
	}
	if in.RequestedDeliveryDate != nil && decision.AllowsField("requested_delivery_date") {
		order.RequestedDeliveryDate = in.RequestedDeliveryDate
	}

	if err := s.store.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order update: %w", err)
	}

	if order.Status != oldStatus {
		s.statusChangeCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", string(oldStatus)),
			attribute.String("to", string(order.Status)),
		))
		s.publish(ctx, domain.OrderEvent{
			Type:      domain.EventOrderStatusChanged,
			OrderID:   order.ID,
			ClientID:  order.ClientID,
			ArtisanID: order.ArtisanID,
			OldStatus: oldStatus,
			NewStatus: order.Status,
			Timestamp: order.UpdatedAt,
		})
	}

	return order, nil
}

// Delete cancels an order. Clients may only do this while the order is
// still pending; admins may always.
func (s *Service) Delete(ctx context.Context, requester auth.Identity, orderID string) error {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}

	if !policy.CanDeleteOrder(requester.Role, requester.UserID, order) {
		return domain.ErrForbidden
	}

	if err := s.store.Delete(ctx, orderID); err != nil {
		return err
	}

	s.publish(ctx, domain.OrderEvent{
		Type:      domain.EventOrderCancelled,
		OrderID:   order.ID,
		ClientID:  order.ClientID,
		ArtisanID: order.ArtisanID,
		OldStatus: order.Status,
		NewStatus: domain.OrderStatusCancelled,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

// publish is best effort: a failed event is logged and never aborts the
// state change that already happened.
func (s *Service) publish(ctx context.Context, event domain.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish order event", "error", err,
			"type", event.Type, "order_id", event.OrderID)
	}
}
