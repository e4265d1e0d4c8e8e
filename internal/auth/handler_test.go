package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/selimbh/craftmarket/internal/domain"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*domain.User)}
}

func (s *memoryUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return nil
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func newTestHandler() *Handler {
	issuer := NewIssuer([]byte("test-secret"), time.Minute, time.Hour, newMemoryRefreshStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(newMemoryUserStore(), issuer, logger)
}

func register(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)
	return rec
}

func TestHandleRegister(t *testing.T) {
	t.Run("creates a user and returns tokens", func(t *testing.T) {
		h := newTestHandler()
		rec := register(t, h, `{"email":"amel@example.com","password":"s3cret-pass","first_name":"Amel","last_name":"Ben Salah","role":"artisan"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}

		var resp authResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.User.ID == "" {
			t.Error("expected user id to be set")
		}
		if resp.User.Role != domain.RoleArtisan {
			t.Errorf("role = %q, want artisan", resp.User.Role)
		}
		if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
			t.Error("expected both tokens to be set")
		}
	})

	t.Run("rejects admin role", func(t *testing.T) {
		h := newTestHandler()
		rec := register(t, h, `{"email":"a@example.com","password":"s3cret-pass","role":"admin"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects short password", func(t *testing.T) {
		h := newTestHandler()
		rec := register(t, h, `{"email":"a@example.com","password":"short","role":"client"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		h := newTestHandler()
		body := `{"email":"dup@example.com","password":"s3cret-pass","role":"client"}`
		if rec := register(t, h, body); rec.Code != http.StatusCreated {
			t.Fatalf("first register: status = %d", rec.Code)
		}
		if rec := register(t, h, body); rec.Code != http.StatusConflict {
			t.Errorf("second register: status = %d, want 409", rec.Code)
		}
	})
}

func TestHandleLogin(t *testing.T) {
	h := newTestHandler()
	if rec := register(t, h, `{"email":"amel@example.com","password":"s3cret-pass","role":"client"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	t.Run("valid credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"amel@example.com","password":"s3cret-pass"}`))
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"amel@example.com","password":"wrong-pass"}`))
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ghost@example.com","password":"s3cret-pass"}`))
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestHandleRefresh(t *testing.T) {
	h := newTestHandler()
	rec := register(t, h, `{"email":"amel@example.com","password":"s3cret-pass","role":"client"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	refresh := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refreshToken":"`+token+`"}`))
		rr := httptest.NewRecorder()
		h.HandleRefresh(rr, req)
		return rr
	}

	first := refresh(resp.Tokens.RefreshToken)
	if first.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d: %s", first.Code, first.Body.String())
	}

	// Refreshing rotated the pair, so the original token is now revoked.
	second := refresh(resp.Tokens.RefreshToken)
	if second.Code != http.StatusUnauthorized {
		t.Errorf("stale refresh: status = %d, want 401", second.Code)
	}

	if rr := refresh("garbage"); rr.Code != http.StatusUnauthorized {
		t.Errorf("garbage refresh: status = %d, want 401", rr.Code)
	}
}

func TestRequireMiddleware(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Minute, time.Hour, newMemoryRefreshStore())
	mw := NewMiddleware(issuer)

	protected := mw.Require(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			t.Error("expected identity in context")
		}
		w.Write([]byte(id.UserID))
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()
		protected(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		pair, err := issuer.IssuePair(context.Background(), "user-1", domain.RoleClient)
		if err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		protected(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != "user-1" {
			t.Errorf("body = %q, want user-1", rec.Body.String())
		}
	})

	t.Run("role restriction", func(t *testing.T) {
		pair, err := issuer.IssuePair(context.Background(), "user-2", domain.RoleClient)
		if err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
		restricted := mw.RequireRole(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}, domain.RoleArtisan, domain.RoleAdmin)

		req := httptest.NewRequest(http.MethodPost, "/listings", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		restricted(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}
