package store

import "slices"

// Wishlist is a set of product IDs kept in the order they were saved.
type Wishlist struct {
	ids []string
}

func NewWishlist(ids []string) *Wishlist {
	w := &Wishlist{}
	for _, id := range ids {
		w.Add(id)
	}
	return w
}

// Add is a no-op when id is already saved.
func (w *Wishlist) Add(id string) {
	if id == "" || w.Contains(id) {
		return
	}
	w.ids = append(w.ids, id)
}

// Remove is a no-op when id is absent.
func (w *Wishlist) Remove(id string) {
	if i := slices.Index(w.ids, id); i >= 0 {
		w.ids = slices.Delete(w.ids, i, i+1)
	}
}

// Toggle flips membership and reports whether id is now saved.
func (w *Wishlist) Toggle(id string) bool {
	if w.Contains(id) {
		w.Remove(id)
		return false
	}
	w.Add(id)
	return w.Contains(id)
}

func (w *Wishlist) Contains(id string) bool { return slices.Contains(w.ids, id) }

func (w *Wishlist) IDs() []string { return slices.Clone(w.ids) }

func (w *Wishlist) Len() int { return len(w.ids) }
