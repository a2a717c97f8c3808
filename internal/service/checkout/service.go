// Package checkout drives the cart-to-order transition: stock validation,
// order snapshot, inventory decrement with compensation, cart cleanup and
// the confirmation event. It is the only writer of orders.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
	"storefront/internal/repository/inventory"
	orderrepo "storefront/internal/repository/order"
	outboxrepo "storefront/internal/repository/outbox"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopicOrderConfirmed is the outbox topic for confirmation notifications.
const TopicOrderConfirmed = "orders.confirmed"

type Service struct {
	// Metrics is optional; when set, checkout outcomes are counted.
	Metrics *metrics.Metrics

	carts    cartRepo
	orders   orderRepo
	products productRepo
	ledger   inventory.Ledger
	outbox   outboxRepo
	logger   *log.Logger
}

type cartRepo interface {
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
}

type orderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdatePayment(ctx context.Context, orderID string, p domain.Payment) error
	UpdateFulfillment(ctx context.Context, orderID string, f domain.Fulfillment) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type outboxRepo interface {
	Insert(ctx context.Context, eventID, topic, key string, payload any) error
}

func New(carts cartrepo.Repository, orders orderrepo.Repository, products productRepo, ledger inventory.Ledger, outbox outboxrepo.Repository, logger *log.Logger) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		products: products,
		ledger:   ledger,
		outbox:   outbox,
		logger:   logger,
	}
}

type CheckoutInput struct {
	CustomerInfo   domain.CustomerInfo
	Billing        domain.Address
	Shipping       domain.Address
	SameAsShipping bool
	PaymentMethod  string
	Notes          string
}

type GuestItemInput struct {
	ProductID string
	VariantID *string
	Quantity  int
}

type GuestCheckoutInput struct {
	CustomerInfo  domain.CustomerInfo
	Items         []GuestItemInput
	Billing       domain.Address
	Shipping      domain.Address
	PaymentMethod string
	Notes         string
}

// CreateFromCart converts the caller's priced cart into an order. The cart
// is resolved by user id, falling back to the session cart (which is then
// re-linked to the user). Pricing is copied verbatim from the cart; it is
// never recomputed here.
func (s *Service) CreateFromCart(ctx context.Context, userID, sessionID string, in CheckoutInput) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validateCheckoutFields(in.CustomerInfo, in.PaymentMethod); err != nil {
		return nil, err
	}

	cart, err := s.resolveCart(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	items, err := s.snapshotItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber:    newOrderNumber(),
		UserID:         &userID,
		CustomerInfo:   in.CustomerInfo,
		Items:          items,
		Pricing:        cart.Totals,
		Addresses:      buildAddresses(in.Billing, in.Shipping, in.SameAsShipping),
		Payment:        domain.Payment{Method: in.PaymentMethod, Status: domain.PaymentPending},
		Fulfillment:    domain.Fulfillment{Status: domain.FulfillmentPending},
		AppliedCoupons: append([]string(nil), cart.AppliedCoupons...),
		Notes:          in.Notes,
	}

	if err := s.commitOrder(ctx, order); err != nil {
		return nil, err
	}
	s.clearCart(ctx, cart)
	s.enqueueConfirmation(ctx, order)
	return order, nil
}

// CreateGuest checks out line items supplied directly in the request,
// bypassing the cart store. Lines are priced from the catalog with the same
// tax/shipping formula carts use.
func (s *Service) CreateGuest(ctx context.Context, in GuestCheckoutInput) (*domain.Order, error) {
	if err := validateCheckoutFields(in.CustomerInfo, in.PaymentMethod); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if len(in.Items) > domain.MaxCartItems {
		return nil, domain.Validationf("order cannot hold more than %d items", domain.MaxCartItems)
	}

	cartItems := make([]domain.CartItem, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, domain.Validationf("quantity must be positive")
		}
		if line.Quantity > domain.MaxItemQuantity {
			return nil, domain.Validationf("quantity cannot exceed %d", domain.MaxItemQuantity)
		}
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, domain.ErrNotFound)
			}
			return nil, err
		}
		cartItems = append(cartItems, domain.CartItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: product.EffectivePrice(),
		})
	}
	for i := range cartItems {
		cartItems[i].Total = pricing.LineTotal(cartItems[i].UnitPrice, cartItems[i].Quantity)
	}

	items, err := s.snapshotItems(ctx, cartItems)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber:  newOrderNumber(),
		CustomerInfo: in.CustomerInfo,
		Items:        items,
		Pricing:      pricing.Compute(cartItems, decimal.Zero),
		Addresses:    buildAddresses(in.Billing, in.Shipping, false),
		Payment:      domain.Payment{Method: in.PaymentMethod, Status: domain.PaymentPending},
		Fulfillment:  domain.Fulfillment{Status: domain.FulfillmentPending},
		Notes:        in.Notes,
	}

	if err := s.commitOrder(ctx, order); err != nil {
		return nil, err
	}
	s.enqueueConfirmation(ctx, order)
	return order, nil
}

// GetOrder returns an order the caller is allowed to see.
func (s *Service) GetOrder(ctx context.Context, userID string, admin bool, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !admin {
		if order.UserID == nil || *order.UserID != userID {
			return nil, domain.ErrForbidden
		}
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// resolveCart prefers the user's own cart; a leftover session cart is
// re-linked to the user before checkout proceeds.
func (s *Service) resolveCart(ctx context.Context, userID, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByOwner(ctx, domain.UserOwner(userID))
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if sessionID == "" {
		return nil, domain.ErrEmptyCart
	}
	cart, err = s.carts.GetByOwner(ctx, domain.SessionOwner(sessionID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}
	cart.SetOwner(domain.UserOwner(userID))
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// snapshotItems validates stock line by line, stopping at the first failure,
// and denormalizes product name/sku/image at this instant. Unit prices come
// from the cart lines, not the live catalog.
func (s *Service) snapshotItems(ctx context.Context, lines []domain.CartItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, domain.ErrNotFound)
			}
			return nil, err
		}

		name := product.Name
		sku := product.SKU
		available := product.Stock
		if line.VariantID != nil {
			v := product.Variant(*line.VariantID)
			if v == nil {
				return nil, fmt.Errorf("variant %s: %w", *line.VariantID, domain.ErrNotFound)
			}
			if v.Name != "" {
				name = product.Name + " - " + v.Name
			}
			sku = v.SKU
			available = v.Stock
		}
		if available < line.Quantity {
			return nil, &domain.InsufficientStockError{ProductName: product.Name}
		}

		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      name,
			SKU:       sku,
			Image:     product.Image,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Total:     line.Total,
		})
	}
	return items, nil
}

// commitOrder persists the order in its pending state, then decrements
// inventory line by line. A failed decrement re-increments every line
// already taken and marks the order failed; nothing is left half-applied.
func (s *Service) commitOrder(ctx context.Context, order *domain.Order) error {
	if err := s.orders.Create(ctx, order); err != nil {
		s.countCheckout("error")
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if err := s.ledger.Decrement(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			s.compensate(ctx, order, i)
			if errors.Is(err, inventory.ErrInsufficient) {
				s.countCheckout("out_of_stock")
				return &domain.InsufficientStockError{ProductName: item.Name}
			}
			s.countCheckout("error")
			return err
		}
	}
	s.countCheckout("ok")

	order.Fulfillment.Status = domain.FulfillmentConfirmed
	if err := s.orders.UpdateFulfillment(ctx, order.ID, order.Fulfillment); err != nil {
		// The order and its stock decrements are in place; confirmation will
		// have to be replayed by hand. Do not fail the checkout over it.
		s.logger.Printf("order %s: confirm failed: %v", order.OrderNumber, err)
	}
	return nil
}

func (s *Service) countCheckout(result string) {
	if s.Metrics != nil {
		s.Metrics.Checkouts.WithLabelValues(result).Inc()
	}
}

// compensate returns stock for items [0, upTo) and marks the order failed.
func (s *Service) compensate(ctx context.Context, order *domain.Order, upTo int) {
	for j := upTo - 1; j >= 0; j-- {
		item := &order.Items[j]
		if err := s.ledger.Increment(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			s.logger.Printf("order %s: compensation increment for product %s failed: %v", order.OrderNumber, item.ProductID, err)
		}
	}
	order.Fulfillment.Status = domain.FulfillmentFailed
	if err := s.orders.UpdateFulfillment(ctx, order.ID, order.Fulfillment); err != nil {
		s.logger.Printf("order %s: marking failed: %v", order.OrderNumber, err)
	}
}

// clearCart empties and deletes the source cart. Best effort: the order is
// already committed, so failures here are logged, not surfaced.
func (s *Service) clearCart(ctx context.Context, cart *domain.Cart) {
	cart.Items = nil
	cart.AppliedCoupons = nil
	pricing.Reprice(cart)
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Printf("cart %s: clear after checkout failed: %v", cart.ID, err)
		return
	}
	if err := s.carts.Delete(ctx, cart.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Printf("cart %s: delete after checkout failed: %v", cart.ID, err)
	}
}

// enqueueConfirmation stages the order-confirmed event in the outbox. Fire
// and forget: a failure is logged and never fails the checkout.
func (s *Service) enqueueConfirmation(ctx context.Context, order *domain.Order) {
	payload := map[string]any{
		"orderNumber": order.OrderNumber,
		"email":       order.CustomerInfo.Email,
		"total":       order.Pricing.Total,
	}
	if err := s.outbox.Insert(ctx, uuid.NewString(), TopicOrderConfirmed, order.OrderNumber, payload); err != nil {
		s.logger.Printf("order %s: enqueue confirmation failed: %v", order.OrderNumber, err)
	}
}

func validateCheckoutFields(info domain.CustomerInfo, paymentMethod string) error {
	if strings.TrimSpace(info.Email) == "" {
		return domain.Validationf("customerInfo.email required")
	}
	if strings.TrimSpace(info.FirstName) == "" || strings.TrimSpace(info.LastName) == "" {
		return domain.Validationf("customerInfo.firstName and customerInfo.lastName required")
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return domain.Validationf("paymentMethod required")
	}
	return nil
}

func buildAddresses(billing, shipping domain.Address, sameAsShipping bool) domain.OrderAddresses {
	if sameAsShipping {
		billing = shipping
	}
	return domain.OrderAddresses{Billing: billing, Shipping: shipping}
}

func newOrderNumber() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), token)
}
