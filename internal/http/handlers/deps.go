package handlers

import (
	"storefront/internal/services"
)

type Deps struct {
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	WishlistHandler  *WishlistHandler
	AuthHandler      *AuthHandler
}

// Services is everything the handlers need, built once at startup.
type Services struct {
	Catalog   *services.CatalogService
	Inventory *services.InventoryService
	Cart      *services.CartService
	Wishlist  *services.WishlistService
	Checkout  *services.CheckoutService
	Auth      *services.AuthService
}

func NewDeps(s Services) *Deps {
	return &Deps{
		ProductHandler:   &ProductHandler{Catalog: s.Catalog, Wish: s.Wishlist},
		InventoryHandler: &InventoryHandler{Inv: s.Inventory},
		SearchHandler:    &SearchHandler{Catalog: s.Catalog},
		CartHandler:      &CartHandler{Cart: s.Cart},
		OrderHandler:     &OrderHandler{Checkout: s.Checkout},
		WishlistHandler:  &WishlistHandler{Wish: s.Wishlist},
		AuthHandler:      &AuthHandler{Auth: s.Auth},
	}
}
