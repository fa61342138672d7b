package services

import (
	"context"

	"storefront/internal/domain"
)

type WishlistService struct {
	State   *SessionState
	Catalog *CatalogService
}

func NewWishlistService(state *SessionState, cat *CatalogService) *WishlistService {
	return &WishlistService{State: state, Catalog: cat}
}

// List resolves saved ids to products in the order they were saved. Ids no
// longer in the catalog are skipped.
func (s *WishlistService) List(ctx context.Context, sid string) ([]domain.Product, error) {
	w, err := s.State.Wishlist(ctx, sid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, w.Len())
	for _, id := range w.IDs() {
		if p, err := s.Catalog.Product(id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *WishlistService) IDs(ctx context.Context, sid string) ([]string, error) {
	w, err := s.State.Wishlist(ctx, sid)
	if err != nil {
		return nil, err
	}
	return w.IDs(), nil
}

// Toggle flips membership of productID and reports whether it is now saved.
func (s *WishlistService) Toggle(ctx context.Context, sid, productID string) (bool, error) {
	if _, err := s.Catalog.Product(productID); err != nil {
		return false, err
	}
	unlock := s.State.Lock(sid)
	defer unlock()

	w, err := s.State.Wishlist(ctx, sid)
	if err != nil {
		return false, err
	}
	saved := w.Toggle(productID)
	return saved, s.State.SaveWishlist(ctx, sid, w)
}

func (s *WishlistService) Add(ctx context.Context, sid, productID string) error {
	if _, err := s.Catalog.Product(productID); err != nil {
		return err
	}
	unlock := s.State.Lock(sid)
	defer unlock()

	w, err := s.State.Wishlist(ctx, sid)
	if err != nil {
		return err
	}
	if w.Contains(productID) {
		return nil
	}
	w.Add(productID)
	return s.State.SaveWishlist(ctx, sid, w)
}

func (s *WishlistService) Remove(ctx context.Context, sid, productID string) error {
	unlock := s.State.Lock(sid)
	defer unlock()

	w, err := s.State.Wishlist(ctx, sid)
	if err != nil {
		return err
	}
	if !w.Contains(productID) {
		return nil
	}
	w.Remove(productID)
	return s.State.SaveWishlist(ctx, sid, w)
}
