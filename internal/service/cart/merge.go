package cart

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

// Merge folds the session cart into the user's cart after authentication.
// Quantities are summed on matching (product, variant) lines, keeping the
// user cart line's unit price; unmatched session lines carry over while the
// cart stays under the distinct-line cap. The session cart is deleted
// afterwards. Stock is not validated here;
// checkout re-validates merged quantities.
func (s *Service) Merge(ctx context.Context, userID, sessionID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if sessionID == "" {
		return nil, domain.Validationf("sessionId required")
	}

	for attempt := 0; ; attempt++ {
		sessionCart, err := s.repo.GetByOwner(ctx, domain.SessionOwner(sessionID))
		if err != nil {
			return nil, err
		}

		userCart, err := s.repo.GetByOwner(ctx, domain.UserOwner(userID))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		if userCart == nil {
			// No user cart: retag the session cart instead of copying lines.
			sessionCart.SetOwner(domain.UserOwner(userID))
			pricing.Reprice(sessionCart)
			sessionCart.ExpiresAt = time.Now().UTC().Add(s.ttl)
			if err := s.repo.Save(ctx, sessionCart); err != nil {
				if errors.Is(err, domain.ErrConflict) && attempt < conflictRetries {
					continue
				}
				return nil, err
			}
			return sessionCart, nil
		}

		for i := range sessionCart.Items {
			line := &sessionCart.Items[i]
			existing := userCart.FindItem(line.ProductID, line.VariantID)
			if existing != nil {
				existing.Quantity += line.Quantity
				// Merged quantities may exceed live stock (checkout
				// re-validates) but never the per-line cap.
				if existing.Quantity > domain.MaxItemQuantity {
					existing.Quantity = domain.MaxItemQuantity
				}
				continue
			}
			// Unmatched lines carry over only while the cart has room;
			// overflow lines are dropped rather than failing the merge.
			if len(userCart.Items) >= domain.MaxCartItems {
				continue
			}
			moved := *line
			moved.CartID = userCart.ID
			userCart.Items = append(userCart.Items, moved)
		}

		pricing.Reprice(userCart)
		userCart.ExpiresAt = time.Now().UTC().Add(s.ttl)
		if err := s.repo.Save(ctx, userCart); err != nil {
			if errors.Is(err, domain.ErrConflict) && attempt < conflictRetries {
				continue
			}
			return nil, err
		}

		if err := s.repo.Delete(ctx, sessionCart.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return userCart, nil
	}
}
