package cart

import (
	"context"
	"time"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, owner domain.CartOwner, ttl time.Duration) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	// Save persists the cart's owner key, items, coupons and totals as one
	// unit, guarded by the cart's version. Returns domain.ErrConflict when
	// another writer got there first.
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes carts whose TTL elapsed and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
