package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentConfirmed  FulfillmentStatus = "confirmed"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
	// FulfillmentFailed marks orders whose inventory decrement could not be
	// completed; such orders never entered the fulfillment pipeline.
	FulfillmentFailed FulfillmentStatus = "failed"
)

// fulfillmentNext lists the allowed forward transition for each state.
// Cancellation is allowed from any non-terminal state.
var fulfillmentNext = map[FulfillmentStatus]FulfillmentStatus{
	FulfillmentPending:    FulfillmentConfirmed,
	FulfillmentConfirmed:  FulfillmentProcessing,
	FulfillmentProcessing: FulfillmentShipped,
	FulfillmentShipped:    FulfillmentDelivered,
}

// CanTransition reports whether a fulfillment status change is legal.
func (s FulfillmentStatus) CanTransition(to FulfillmentStatus) bool {
	if s == to {
		return false
	}
	if to == FulfillmentCancelled {
		return !s.Terminal()
	}
	return fulfillmentNext[s] == to
}

// Terminal reports whether no further transitions are possible.
func (s FulfillmentStatus) Terminal() bool {
	switch s {
	case FulfillmentDelivered, FulfillmentCancelled, FulfillmentFailed:
		return true
	}
	return false
}

type CustomerInfo struct {
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Address struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Country    string `json:"country,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type OrderAddresses struct {
	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`
}

type Payment struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID *string       `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

type Fulfillment struct {
	Status         FulfillmentStatus `json:"status"`
	TrackingNumber *string           `json:"trackingNumber,omitempty"`
	Carrier        *string           `json:"carrier,omitempty"`
	ShippedAt      *time.Time        `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time        `json:"deliveredAt,omitempty"`
	Notes          string            `json:"notes,omitempty"`
}

// Order is an immutable point-in-time snapshot of a priced cart. Only the
// payment and fulfillment sub-states change after creation.
type Order struct {
	ID             string         `json:"id"`
	OrderNumber    string         `json:"orderNumber"`
	UserID         *string        `json:"user,omitempty"`
	CustomerInfo   CustomerInfo   `json:"customerInfo"`
	Items          []OrderItem    `json:"items"`
	Pricing        Totals         `json:"pricing"`
	Addresses      OrderAddresses `json:"addresses"`
	Payment        Payment        `json:"payment"`
	Fulfillment    Fulfillment    `json:"fulfillment"`
	AppliedCoupons []string       `json:"appliedCoupons"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// OrderItem denormalizes the product at checkout time; later catalog changes
// never reach it.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"-"`
	ProductID string          `json:"product"`
	VariantID *string         `json:"variant,omitempty"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}
