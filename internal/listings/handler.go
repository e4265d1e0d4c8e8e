package listings

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/selimbh/craftmarket/internal/auth"
	"github.com/selimbh/craftmarket/internal/domain"
	"github.com/selimbh/craftmarket/internal/pagination"
)

// Store is the listing persistence surface the handlers need. The order
// service shares the read side of it.
type Store interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context, filter Filter, opts pagination.Options) (pagination.Page[domain.Listing], error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

type createListingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Category == "" {
		h.writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	if req.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	listing := &domain.Listing{
		ArtisanID:   id.UserID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Status:      domain.ListingStatusActive,
	}

	if err := h.store.Create(r.Context(), listing); err != nil {
		h.logger.Error("failed to create listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("listing created", "listing_id", listing.ID, "artisan_id", listing.ArtisanID)
	h.writeJSON(w, http.StatusCreated, listing)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("listingId")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing listing id")
		return
	}

	listing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get listing", "error", err, "listing_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if listing == nil {
		h.writeError(w, http.StatusNotFound, "listing not found")
		return
	}

	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := Filter{
		ArtisanID: q.Get("artisan"),
		Category:  q.Get("category"),
		Status:    domain.ListingStatus(q.Get("status")),
	}
	opts := pagination.Options{
		SortBy: q.Get("sortBy"),
		Limit:  intQuery(q.Get("limit")),
		Page:   intQuery(q.Get("page")),
	}

	page, err := h.store.List(r.Context(), filter, opts)
	if err != nil {
		h.logger.Error("failed to list listings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, page)
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
