package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/selimbh/craftmarket/internal/auth"
	"github.com/selimbh/craftmarket/internal/domain"
	"github.com/selimbh/craftmarket/internal/pagination"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.Create(r.Context(), id.UserID, in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		h.writeServiceError(w, err, "create order")
		return
	}

	h.logger.Info("order created", "order_id", order.ID,
		"client_id", order.ClientID, "artisan_id", order.ArtisanID)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Status:        domain.OrderStatus(q.Get("status")),
		PaymentStatus: domain.PaymentStatus(q.Get("paymentStatus")),
	}
	opts := pagination.Options{
		SortBy: q.Get("sortBy"),
		Limit:  intQuery(q.Get("limit")),
		Page:   intQuery(q.Get("page")),
	}

	page, err := h.svc.List(r.Context(), id, filter, opts)
	if err != nil {
		h.writeServiceError(w, err, "list orders")
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.svc.Get(r.Context(), id, orderID)
	if err != nil {
		h.writeServiceError(w, err, "get order")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.Update(r.Context(), id, orderID, in)
	if err != nil {
		h.writeServiceError(w, err, "update order")
		return
	}

	h.logger.Info("order updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.svc.Delete(r.Context(), id, orderID); err != nil {
		h.writeServiceError(w, err, "delete order")
		return
	}

	h.logger.Info("order deleted", "order_id", orderID)
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError translates the domain error taxonomy into HTTP
// status codes at the boundary.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, op string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "you do not have permission to access this order")
	default:
		h.logger.Error("failed to "+op, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func intQuery(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
