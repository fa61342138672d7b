package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. Optional attributes are explicit: a nil Stock
// means unlimited, an invalid OriginalPrice means no discount.
type Product struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	Category      string              `json:"category,omitempty"`
	SubCategory   string              `json:"subCategory,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	Brand         string              `json:"brand,omitempty"`
	Sizes         []string            `json:"sizes,omitempty"`
	Colors        []string            `json:"colors,omitempty"`
	Stock         *int                `json:"stock,omitempty"`
	OutOfStock    bool                `json:"outOfStock,omitempty"`
	Rating        float64             `json:"rating,omitempty"`
	ReviewCount   int                 `json:"reviewCount,omitempty"`
	Image         string              `json:"image,omitempty"`
}

// OnSale reports whether the product carries a higher original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice.Valid && p.OriginalPrice.Decimal.GreaterThan(p.Price)
}

// Stock states, same vocabulary as the availability API.
const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

// LowStockBelow is the quantity under which a product is reported as low stock.
const LowStockBelow = 5

type StockStatus struct {
	State     string `json:"status"`
	Available int    `json:"qty,omitempty"`
	Unlimited bool   `json:"unlimited,omitempty"`
}

// CheckStockStatus is the single place stock availability is derived from a
// product. Every consumer (cart ceilings, availability API, views) uses it.
func CheckStockStatus(p Product) StockStatus {
	if p.OutOfStock {
		return StockStatus{State: OutOfStock}
	}
	if p.Stock == nil {
		return StockStatus{State: InStock, Unlimited: true}
	}
	qty := *p.Stock
	switch {
	case qty <= 0:
		return StockStatus{State: OutOfStock}
	case qty < LowStockBelow:
		return StockStatus{State: LowStock, Available: qty}
	default:
		return StockStatus{State: InStock, Available: qty}
	}
}

// Purchasable is false when nothing can be added to a cart.
func (s StockStatus) Purchasable() bool { return s.State != OutOfStock }
