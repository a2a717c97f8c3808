package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Monetary fields marshal as JSON numbers, matching the wire contract.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	// MaxCartItems caps the number of distinct lines in a cart.
	MaxCartItems = 50
	// MaxItemQuantity caps the quantity of a single line.
	MaxItemQuantity = 999
)

// OwnerKind discriminates the two possible cart owners.
type OwnerKind string

const (
	OwnerUser    OwnerKind = "user"
	OwnerSession OwnerKind = "session"
)

// CartOwner is the tagged owner of a cart: an authenticated user or an
// anonymous session, never both.
type CartOwner struct {
	Kind OwnerKind
	ID   string
}

func UserOwner(userID string) CartOwner {
	return CartOwner{Kind: OwnerUser, ID: userID}
}

func SessionOwner(sessionID string) CartOwner {
	return CartOwner{Kind: OwnerSession, ID: sessionID}
}

func (o CartOwner) IsUser() bool {
	return o.Kind == OwnerUser
}

// Totals holds a cart's (or order's) monetary breakdown. The invariant
// Total == Subtotal + Tax + Shipping - Discount is re-established by the
// pricing package on every cart write.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ZeroTotals returns a Totals with every component at zero.
func ZeroTotals() Totals {
	z := decimal.Zero
	return Totals{Subtotal: z, Discount: z, Tax: z, Shipping: z, Total: z}
}

type Cart struct {
	ID             string     `json:"id"`
	UserID         *string    `json:"user,omitempty"`
	SessionID      *string    `json:"sessionId,omitempty"`
	Items          []CartItem `json:"items"`
	Totals         Totals     `json:"totals"`
	AppliedCoupons []string   `json:"appliedCoupons"`
	Version        int        `json:"-"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        string          `json:"id"`
	CartID    string          `json:"-"`
	ProductID string          `json:"product"`
	VariantID *string         `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Owner returns the cart's owning key.
func (c *Cart) Owner() CartOwner {
	if c.UserID != nil {
		return UserOwner(*c.UserID)
	}
	if c.SessionID != nil {
		return SessionOwner(*c.SessionID)
	}
	return CartOwner{}
}

// SetOwner rewrites the owning key, clearing the other side.
func (c *Cart) SetOwner(owner CartOwner) {
	if owner.IsUser() {
		id := owner.ID
		c.UserID = &id
		c.SessionID = nil
		return
	}
	id := owner.ID
	c.SessionID = &id
	c.UserID = nil
}

// FindItem returns the line matching (product, variant), or nil.
func (c *Cart) FindItem(productID string, variantID *string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && variantEqual(c.Items[i].VariantID, variantID) {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemByID returns the line with the given id, or nil.
func (c *Cart) ItemByID(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItemByID drops the line with the given id and reports whether it
// was present.
func (c *Cart) RemoveItemByID(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func variantEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
