package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/coupon"
	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// conflictRetries bounds how often a mutation is replayed after losing an
// optimistic-version race.
const conflictRetries = 1

type Service struct {
	repo     cartRepo
	products productRepo
	ttl      time.Duration
}

type cartRepo interface {
	Create(ctx context.Context, owner domain.CartOwner, ttl time.Duration) (*domain.Cart, error)
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productRepo, ttl time.Duration) *Service {
	return &Service{repo: repo, products: products, ttl: ttl}
}

// Get returns the owner's cart, or a synthesized empty cart when none is
// stored. The synthesized cart is not persisted.
func (s *Service) Get(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.emptyCart(owner), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem appends a line or bumps an existing (product, variant) line. The
// unit price is snapshotted at first add and kept on repeat adds. Stock is
// checked against the catalog at add time.
func (s *Service) AddItem(ctx context.Context, owner domain.CartOwner, productID string, quantity int, variantID *string) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.Validationf("quantity must be positive")
	}
	if quantity > domain.MaxItemQuantity {
		return nil, domain.Validationf("quantity cannot exceed %d", domain.MaxItemQuantity)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return nil, err
	}
	available, ok := product.AvailableStock(variantID)
	if !ok {
		return nil, fmt.Errorf("variant %s: %w", *variantID, domain.ErrNotFound)
	}

	return s.mutate(ctx, owner, true, func(cart *domain.Cart) error {
		line := cart.FindItem(productID, variantID)
		newQty := quantity
		if line != nil {
			newQty += line.Quantity
		}
		if newQty > domain.MaxItemQuantity {
			return domain.Validationf("quantity cannot exceed %d", domain.MaxItemQuantity)
		}
		if newQty > available {
			return &domain.InsufficientStockError{ProductName: product.Name}
		}
		if line != nil {
			line.Quantity = newQty
			return nil
		}
		if len(cart.Items) >= domain.MaxCartItems {
			return domain.Validationf("cart cannot hold more than %d items", domain.MaxCartItems)
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuid.NewString(),
			CartID:    cart.ID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			UnitPrice: product.EffectivePrice(),
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line.
// Live stock is deliberately not consulted here; checkout re-validates.
func (s *Service) UpdateItemQuantity(ctx context.Context, owner domain.CartOwner, itemID string, quantity int) (*domain.Cart, error) {
	if quantity > domain.MaxItemQuantity {
		return nil, domain.Validationf("quantity cannot exceed %d", domain.MaxItemQuantity)
	}
	return s.mutate(ctx, owner, false, func(cart *domain.Cart) error {
		item := cart.ItemByID(itemID)
		if item == nil {
			return domain.ErrNotFound
		}
		if quantity <= 0 {
			cart.RemoveItemByID(itemID)
			return nil
		}
		item.Quantity = quantity
		return nil
	})
}

// RemoveItem drops a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, owner, false, func(cart *domain.Cart) error {
		if !cart.RemoveItemByID(itemID) {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Clear empties the cart; the now-empty cart document is deleted.
func (s *Service) Clear(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	return s.mutate(ctx, owner, false, func(cart *domain.Cart) error {
		cart.Items = nil
		coupon.Remove(cart)
		return nil
	})
}

// ApplyCoupon validates the code and stores the resulting discount on the
// cart. A second code overwrites the first; it never stacks.
func (s *Service) ApplyCoupon(ctx context.Context, owner domain.CartOwner, code string) (*domain.Cart, decimal.Decimal, coupon.DiscountType, error) {
	var (
		amount       decimal.Decimal
		discountType coupon.DiscountType
	)
	cart, err := s.mutate(ctx, owner, false, func(cart *domain.Cart) error {
		var err error
		amount, discountType, err = coupon.Apply(cart, code)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, "", err
	}
	return cart, amount, discountType, nil
}

// RemoveCoupon resets the discount and clears applied codes.
func (s *Service) RemoveCoupon(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	return s.mutate(ctx, owner, false, func(cart *domain.Cart) error {
		coupon.Remove(cart)
		return nil
	})
}

func (s *Service) emptyCart(owner domain.CartOwner) *domain.Cart {
	cart := &domain.Cart{
		Items:          []domain.CartItem{},
		Totals:         domain.ZeroTotals(),
		AppliedCoupons: []string{},
		ExpiresAt:      time.Now().UTC().Add(s.ttl),
	}
	if owner.ID != "" {
		cart.SetOwner(owner)
	}
	return cart
}

// mutate loads the owner's cart, applies fn, reprices and persists. A lost
// version race replays the whole sequence against a fresh read. A cart left
// without items is deleted and nil is returned.
func (s *Service) mutate(ctx context.Context, owner domain.CartOwner, createMissing bool, fn func(cart *domain.Cart) error) (*domain.Cart, error) {
	if owner.ID == "" {
		return nil, domain.Validationf("session or user identity required")
	}
	for attempt := 0; ; attempt++ {
		created := false
		cart, err := s.repo.GetByOwner(ctx, owner)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if !createMissing {
				return nil, domain.ErrNotFound
			}
			cart, err = s.repo.Create(ctx, owner, s.ttl)
			if err != nil {
				return nil, err
			}
			created = true
		}

		if err := fn(cart); err != nil {
			if created {
				// Do not leave behind the empty cart row we just created.
				_ = s.repo.Delete(ctx, cart.ID)
			}
			return nil, err
		}

		pricing.Reprice(cart)
		cart.ExpiresAt = time.Now().UTC().Add(s.ttl)

		if err := s.repo.Save(ctx, cart); err != nil {
			if errors.Is(err, domain.ErrConflict) && attempt < conflictRetries {
				continue
			}
			return nil, err
		}

		if len(cart.Items) == 0 {
			if err := s.repo.Delete(ctx, cart.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			return nil, nil
		}
		return cart, nil
	}
}
