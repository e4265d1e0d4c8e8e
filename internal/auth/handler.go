package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/selimbh/craftmarket/internal/domain"
)

// UserStore is the slice of the user repository the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Handler struct {
	users  UserStore
	issuer *Issuer
	logger *slog.Logger
}

func NewHandler(users UserStore, issuer *Issuer, logger *slog.Logger) *Handler {
	return &Handler{
		users:  users,
		issuer: issuer,
		logger: logger,
	}
}

type registerRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      domain.Role `json:"role"`
}

type authResponse struct {
	User   *domain.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if len(req.Password) < 8 {
		h.writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	// Admin accounts are provisioned out of band, never self-assigned.
	if req.Role != domain.RoleClient && req.Role != domain.RoleArtisan {
		h.writeError(w, http.StatusBadRequest, "role must be client or artisan")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			h.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	tokens, err := h.issuer.IssuePair(r.Context(), user.ID, user.Role)
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	h.writeJSON(w, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		h.writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}

	tokens, err := h.issuer.IssuePair(r.Context(), user.ID, user.Role)
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		h.writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	userID, err := h.issuer.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredential),
			errors.Is(err, ErrExpiredCredential),
			errors.Is(err, ErrRevokedCredential):
			h.writeError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.logger.Error("failed to rotate refresh token", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load user", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		h.writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	tokens, err := h.issuer.IssuePair(r.Context(), user.ID, user.Role)
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("tokens refreshed", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, map[string]TokenPair{"tokens": tokens})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.issuer.Revoke(r.Context(), id.UserID); err != nil {
		h.logger.Error("failed to revoke refresh token", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user logged out", "user_id", id.UserID)
	w.WriteHeader(http.StatusNoContent)
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
