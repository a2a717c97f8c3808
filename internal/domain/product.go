package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the read-only catalog view this service consumes: pricing and
// stock only, no merchandising fields.
type Product struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku"`
	Image     string           `json:"image,omitempty"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice decimal.Decimal  `json:"salePrice"`
	Stock     int              `json:"stock"`
	Variants  []ProductVariant `json:"variants,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ProductVariant is a SKU-level option with its own stock counter.
type ProductVariant struct {
	ID        string `json:"id"`
	ProductID string `json:"-"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
}

// EffectivePrice is the sale price when one is set, the list price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.Price
}

// Variant returns the variant with the given id, or nil.
func (p *Product) Variant(variantID string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// AvailableStock is the stock counter a line against this product consumes:
// the variant's counter for variant lines, the top-level counter otherwise.
func (p *Product) AvailableStock(variantID *string) (int, bool) {
	if variantID == nil {
		return p.Stock, true
	}
	v := p.Variant(*variantID)
	if v == nil {
		return 0, false
	}
	return v.Stock, true
}
