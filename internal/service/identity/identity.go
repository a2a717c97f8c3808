// Package identity maps an incoming request to either an authenticated user
// or an anonymous session. Token issuance belongs to the external auth
// system; this service only validates what it is handed.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

// ErrInvalidToken indicates the bearer token could not be validated.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the resolved caller: a user (via bearer token) or a session
// (via header/cookie). Admin is set for tokens of kind "admin".
type Identity struct {
	UserID    string
	SessionID string
	Admin     bool
}

func (id Identity) IsUser() bool {
	return id.UserID != ""
}

func (id Identity) IsAnonymous() bool {
	return id.UserID == "" && id.SessionID != ""
}

// Owner returns the cart-owner key for this identity.
func (id Identity) Owner() domain.CartOwner {
	if id.IsUser() {
		return domain.UserOwner(id.UserID)
	}
	return domain.SessionOwner(id.SessionID)
}

type tokenStore interface {
	Get(ctx context.Context, token string) (*tokenrepo.Token, error)
}

type Resolver struct {
	tokens tokenStore
}

func NewResolver(tokens tokenrepo.Repository) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve validates the bearer token when present, otherwise falls back to
// the session id. A present-but-invalid bearer token is an error rather than
// a silent downgrade to anonymous.
func (r *Resolver) Resolve(ctx context.Context, bearer, sessionID string) (Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer != "" {
		tok, err := r.tokens.Get(ctx, bearer)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Identity{}, ErrInvalidToken
			}
			return Identity{}, err
		}
		if time.Now().After(tok.ExpiresAt) {
			return Identity{}, ErrInvalidToken
		}
		// Keep the session id: cart merge needs both sides after login.
		return Identity{UserID: tok.UserID, SessionID: strings.TrimSpace(sessionID), Admin: tok.Kind == "admin"}, nil
	}
	return Identity{SessionID: strings.TrimSpace(sessionID)}, nil
}
