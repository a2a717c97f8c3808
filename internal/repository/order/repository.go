package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create persists the order and its item snapshot in one transaction.
	// The order row is append-only afterwards; only the payment and
	// fulfillment sub-states change.
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdatePayment(ctx context.Context, orderID string, p domain.Payment) error
	UpdateFulfillment(ctx context.Context, orderID string, f domain.Fulfillment) error
}
