package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository is the narrow read-only view of the catalog this service
// consumes: price, sale price and stock, by product id.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}
