package store

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	ErrOutOfStock      = errors.New("out of stock")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrSizeRequired    = errors.New("select a size")
	ErrColorRequired   = errors.New("select a color")
	ErrUnknownVariant  = errors.New("variant not offered for this product")
	ErrLineNotFound    = errors.New("cart line not found")
)

// IsValidation reports errors caused by a missing or bad selection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) || errors.Is(err, ErrSizeRequired) ||
		errors.Is(err, ErrColorRequired) || errors.Is(err, ErrUnknownVariant)
}

type Outcome string

const (
	Added     Outcome = "added"
	Updated   Outcome = "updated"
	Removed   Outcome = "removed"
	Truncated Outcome = "truncated"
)

// NoCeiling marks a line whose product has unlimited stock.
const NoCeiling = -1

// LineKey encodes (productID, size, color); empty components stand for null.
func LineKey(productID, size, color string) string {
	return productID + "|" + size + "|" + color
}

type Line struct {
	Key       string          `json:"key"`
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Brand     string          `json:"brand,omitempty"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	Ceiling   int             `json:"ceiling"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) capped(q int) (int, bool) {
	if l.Ceiling != NoCeiling && q > l.Ceiling {
		return l.Ceiling, true
	}
	return q, false
}

type AddResult struct {
	Line      Line    `json:"line"`
	Outcome   Outcome `json:"outcome"`
	Requested int     `json:"requested"`
}

// Cart holds line items in insertion order. It is not safe for concurrent
// use; the owner serializes access.
type Cart struct {
	lines []Line
}

// NewCart rebuilds a cart from persisted lines, dropping lines that violate
// the quantity invariants.
func NewCart(lines []Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.Quantity <= 0 || l.Key == "" {
			continue
		}
		l.Quantity, _ = l.capped(l.Quantity)
		if l.Quantity <= 0 {
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Add merges into an existing line with the same composite key or creates a
// new one. Existing lines are capped by the ceiling recorded when they were
// created, not by the product's current stock.
func (c *Cart) Add(p domain.Product, qty int, size, color string) (AddResult, error) {
	if qty < 1 {
		return AddResult{}, ErrInvalidQuantity
	}
	size, color = strings.TrimSpace(size), strings.TrimSpace(color)
	size, err := checkVariant(p.Sizes, size, ErrSizeRequired)
	if err != nil {
		return AddResult{}, err
	}
	color, err = checkVariant(p.Colors, color, ErrColorRequired)
	if err != nil {
		return AddResult{}, err
	}
	st := domain.CheckStockStatus(p)
	if !st.Purchasable() {
		return AddResult{}, ErrOutOfStock
	}

	key := LineKey(p.ID, size, color)
	if i := c.index(key); i >= 0 {
		l := &c.lines[i]
		q, cut := l.capped(l.Quantity + qty)
		l.Quantity = q
		return AddResult{Line: *l, Outcome: outcome(cut, Updated), Requested: qty}, nil
	}

	ceiling := NoCeiling
	if !st.Unlimited {
		ceiling = st.Available
	}
	l := Line{
		Key: key, ProductID: p.ID, Title: p.Title, Brand: p.Brand, Image: p.Image,
		Price: p.Price, Size: size, Color: color, Ceiling: ceiling,
	}
	q, cut := l.capped(qty)
	l.Quantity = q
	c.lines = append(c.lines, l)
	return AddResult{Line: l, Outcome: outcome(cut, Added), Requested: qty}, nil
}

func outcome(truncated bool, ok Outcome) Outcome {
	if truncated {
		return Truncated
	}
	return ok
}

// checkVariant requires a selection when the product offers choices and
// rejects a selection it does not offer. The offered spelling is returned so
// "m" and "M" land on the same line.
func checkVariant(offered []string, chosen string, missing error) (string, error) {
	if len(offered) == 0 {
		if chosen != "" {
			return "", ErrUnknownVariant
		}
		return "", nil
	}
	if chosen == "" {
		return "", missing
	}
	for _, o := range offered {
		if strings.EqualFold(o, chosen) {
			return o, nil
		}
	}
	return "", ErrUnknownVariant
}

// UpdateQuantity clamps qty into [0, ceiling]; zero removes the line.
func (c *Cart) UpdateQuantity(key string, qty int) (Outcome, error) {
	i := c.index(key)
	if i < 0 {
		return "", ErrLineNotFound
	}
	if qty <= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
		return Removed, nil
	}
	q, cut := c.lines[i].capped(qty)
	c.lines[i].Quantity = q
	return outcome(cut, Updated), nil
}

// Remove is a no-op for unknown keys.
func (c *Cart) Remove(key string) {
	if i := c.index(key); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

func (c *Cart) Clear() { c.lines = nil }

func (c *Cart) Line(key string) (Line, bool) {
	if i := c.index(key); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the line items.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Empty() bool { return len(c.lines) == 0 }

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) index(key string) int {
	for i, l := range c.lines {
		if l.Key == key {
			return i
		}
	}
	return -1
}
