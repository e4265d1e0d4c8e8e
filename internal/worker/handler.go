package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/selimbh/craftmarket/internal/domain"
)

// NotificationHandler turns order lifecycle events into emails for the
// parties involved. Artisans hear about new orders, clients hear about
// status changes, and both hear about cancellations.
type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, event domain.OrderEvent) error {
	h.logger.Info("processing order event", "type", event.Type, "order_id", event.OrderID)

	switch event.Type {
	case domain.EventOrderCreated:
		return h.notifyNewOrder(ctx, event)
	case domain.EventOrderStatusChanged:
		return h.notifyStatusChange(ctx, event)
	case domain.EventOrderCancelled:
		return h.notifyCancellation(ctx, event)
	default:
		h.logger.Warn("skipping unknown event type", "type", event.Type, "order_id", event.OrderID)
		return nil
	}
}

func (h *NotificationHandler) notifyNewOrder(ctx context.Context, event domain.OrderEvent) error {
	email := map[string]string{
		"to":      event.ArtisanID + "@example.com",
		"subject": "New Order: " + event.OrderID,
		"body": fmt.Sprintf("You received a new order for listing %s at %.2f. Accept or reject it from your dashboard.",
			event.ListingID, event.Price),
	}

	if err := h.sendEmail(ctx, email); err != nil {
		return fmt.Errorf("notify artisan of new order: %w", err)
	}
	return nil
}

func (h *NotificationHandler) notifyStatusChange(ctx context.Context, event domain.OrderEvent) error {
	email := map[string]string{
		"to":      event.ClientID + "@example.com",
		"subject": "Order Update: " + event.OrderID,
		"body": fmt.Sprintf("Your order %s moved from %s to %s.",
			event.OrderID, event.OldStatus, event.NewStatus),
	}

	if err := h.sendEmail(ctx, email); err != nil {
		return fmt.Errorf("notify client of status change: %w", err)
	}
	return nil
}

func (h *NotificationHandler) notifyCancellation(ctx context.Context, event domain.OrderEvent) error {
	for _, to := range []string{event.ClientID, event.ArtisanID} {
		email := map[string]string{
			"to":      to + "@example.com",
			"subject": "Order Cancelled: " + event.OrderID,
			"body":    fmt.Sprintf("Order %s has been cancelled. No payment will be collected.", event.OrderID),
		}
		if err := h.sendEmail(ctx, email); err != nil {
			return fmt.Errorf("notify %s of cancellation: %w", to, err)
		}
	}
	return nil
}

func (h *NotificationHandler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
