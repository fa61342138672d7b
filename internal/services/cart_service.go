package services

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/store"
)

type CartService struct {
	State   *SessionState
	Catalog *CatalogService
}

func NewCartService(state *SessionState, cat *CatalogService) *CartService {
	return &CartService{State: state, Catalog: cat}
}

type CartView struct {
	Lines     []store.Line    `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

func viewOf(c *store.Cart) CartView {
	return CartView{Lines: c.Lines(), ItemCount: c.ItemCount(), Total: c.Total()}
}

func (s *CartService) View(ctx context.Context, sid string) (CartView, error) {
	c, err := s.State.Cart(ctx, sid)
	if err != nil {
		return CartView{}, err
	}
	return viewOf(c), nil
}

// Add resolves productID against the catalog and adds it to the session
// cart. Errors from the cart (validation, out of stock) leave state untouched.
func (s *CartService) Add(ctx context.Context, sid, productID string, qty int, size, color string) (store.AddResult, CartView, error) {
	p, err := s.Catalog.Product(productID)
	if err != nil {
		return store.AddResult{}, CartView{}, err
	}

	unlock := s.State.Lock(sid)
	defer unlock()

	c, err := s.State.Cart(ctx, sid)
	if err != nil {
		return store.AddResult{}, CartView{}, err
	}
	res, err := c.Add(p, qty, size, color)
	if err != nil {
		return store.AddResult{}, viewOf(c), err
	}
	if err := s.State.SaveCart(ctx, sid, c); err != nil {
		return store.AddResult{}, CartView{}, err
	}
	return res, viewOf(c), nil
}

func (s *CartService) Update(ctx context.Context, sid, key string, qty int) (store.Outcome, CartView, error) {
	unlock := s.State.Lock(sid)
	defer unlock()

	c, err := s.State.Cart(ctx, sid)
	if err != nil {
		return "", CartView{}, err
	}
	out, err := c.UpdateQuantity(key, qty)
	if err != nil {
		return "", viewOf(c), err
	}
	if err := s.State.SaveCart(ctx, sid, c); err != nil {
		return "", CartView{}, err
	}
	return out, viewOf(c), nil
}

func (s *CartService) Remove(ctx context.Context, sid, key string) (CartView, error) {
	unlock := s.State.Lock(sid)
	defer unlock()

	c, err := s.State.Cart(ctx, sid)
	if err != nil {
		return CartView{}, err
	}
	c.Remove(key)
	if err := s.State.SaveCart(ctx, sid, c); err != nil {
		return CartView{}, err
	}
	return viewOf(c), nil
}

func (s *CartService) Clear(ctx context.Context, sid string) error {
	unlock := s.State.Lock(sid)
	defer unlock()
	return s.State.Store.Delete(ctx, cartKey(sid))
}
