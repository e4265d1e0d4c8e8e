package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/selimbh/craftmarket/internal/domain"
)

var (
	// ErrInvalidCredential covers malformed tokens and bad signatures.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential is returned for structurally valid tokens past
	// their expiry.
	ErrExpiredCredential = errors.New("expired credential")
	// ErrRevokedCredential is returned when a refresh token no longer
	// matches the one on file for its identity.
	ErrRevokedCredential = errors.New("revoked credential")
)

// RefreshStore persists at most one valid refresh token per identity.
// Saving overwrites the previous token, which revokes it.
type RefreshStore interface {
	Save(ctx context.Context, userID, token string, ttl time.Duration) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what clients receive on register, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer signs and verifies the two credential kinds: a short-lived
// access token embedding identity and role, and a longer-lived refresh
// token embedding identity only.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshStore
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration, store RefreshStore) *Issuer {
	return &Issuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
	}
}

// IssuePair signs a fresh access+refresh pair and records the refresh
// token, invalidating any previously issued one for this identity.
func (i *Issuer) IssuePair(ctx context.Context, userID string, role domain.Role) (TokenPair, error) {
	access, err := i.sign(userID, string(role), i.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := i.sign(userID, "", i.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := i.store.Save(ctx, userID, refresh, i.refreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// VerifyAccess validates an access token and returns the identity it
// asserts.
func (i *Issuer) VerifyAccess(token string) (Identity, error) {
	c, err := i.parse(token)
	if err != nil {
		return Identity{}, err
	}
	role := domain.Role(c.Role)
	if c.Subject == "" || !role.Valid() {
		return Identity{}, ErrInvalidCredential
	}
	return Identity{UserID: c.Subject, Role: role}, nil
}

// Rotate validates a refresh token against the one on file and returns
// the identity it belongs to. The caller is expected to issue a new pair
// immediately, which replaces the stored token.
func (i *Issuer) Rotate(ctx context.Context, token string) (string, error) {
	c, err := i.parse(token)
	if err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", ErrInvalidCredential
	}

	stored, err := i.store.Get(ctx, c.Subject)
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if stored != token {
		return "", ErrRevokedCredential
	}

	return c.Subject, nil
}

// Revoke drops the refresh token on file for the identity.
func (i *Issuer) Revoke(ctx context.Context, userID string) error {
	return i.store.Delete(ctx, userID)
}

func (i *Issuer) parse(token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	return c, nil
}
