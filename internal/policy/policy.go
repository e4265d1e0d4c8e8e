// Package policy holds the authorization rules for orders as pure
// functions over (role, actor id, order). It has no dependency on the
// HTTP layer or the store, so every rule is testable with plain tuples.
package policy

import "github.com/selimbh/craftmarket/internal/domain"

// Decision is the outcome of an authorization check. A nil Fields slice
// means the actor may touch every mutable field; a non-nil slice restricts
// the actor to exactly those fields, and anything else submitted is
// silently dropped rather than rejected.
type Decision struct {
	Allowed bool
	Fields  []string
}

var deny = Decision{}

// CanReadOrder allows admins unconditionally and the two parties of the
// order; everyone else is denied.
func CanReadOrder(role domain.Role, actorID string, o *domain.Order) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleClient:
		return actorID == o.ClientID
	case domain.RoleArtisan:
		return actorID == o.ArtisanID
	}
	return false
}

// DecideOrderUpdate gates mutation. Only the seller adjusts fulfillment:
// an artisan may update their own orders but only the status field; an
// admin may update any field. Clients never update orders.
func DecideOrderUpdate(role domain.Role, actorID string, o *domain.Order) Decision {
	switch role {
	case domain.RoleAdmin:
		return Decision{Allowed: true}
	case domain.RoleArtisan:
		if actorID == o.ArtisanID {
			return Decision{Allowed: true, Fields: []string{"status"}}
		}
	}
	return deny
}

// CanDeleteOrder allows admins at any time, and the owning client only
// while the order is still pending. There is no retracting after the
// artisan has committed.
func CanDeleteOrder(role domain.Role, actorID string, o *domain.Order) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleClient:
		return actorID == o.ClientID && o.Status == domain.OrderStatusPending
	}
	return false
}

// AllowsField reports whether the decision permits changing the named
// field.
func (d Decision) AllowsField(name string) bool {
	if !d.Allowed {
		return false
	}
	if d.Fields == nil {
		return true
	}
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}
