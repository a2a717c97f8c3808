package token

import (
	"context"
	"time"
)

// Token is an opaque bearer credential issued by the (external) auth system.
// This service only reads them to resolve request identity; Kind "admin"
// additionally unlocks the fulfillment endpoints.
type Token struct {
	Token     string
	UserID    string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
