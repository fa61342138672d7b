package handlers

import (
	"errors"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

type productReq struct {
	ProductID string `json:"productId" form:"productId"`
}

func (h *WishlistHandler) productID(c *fiber.Ctx) (string, bool) {
	var req productReq
	if err := c.BodyParser(&req); err != nil {
		return "", false
	}
	return validate.ID(req.ProductID)
}

func (h *WishlistHandler) fail(c *fiber.Ctx, action, pid string, err error) error {
	if errors.Is(err, services.ErrProductNotFound) {
		return notFound(c, "product not found")
	}
	applog.Error(c, action, err, map[string]any{"product": pid})
	return apiError(c, fiber.StatusInternalServerError, "could not update wishlist")
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), sessionID(c))
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load wishlist")
	}
	return c.JSON(fiber.Map{"items": cards(items), "count": len(items)})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	pid, ok := h.productID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "missing productId")
	}
	if err := h.Wish.Add(c.UserContext(), sessionID(c), pid); err != nil {
		return h.fail(c, "wishlist.save.fail", pid, err)
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	return c.JSON(fiber.Map{"productId": pid, "saved": true})
}

func (h *WishlistHandler) Toggle(c *fiber.Ctx) error {
	pid, ok := h.productID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "missing productId")
	}
	saved, err := h.Wish.Toggle(c.UserContext(), sessionID(c), pid)
	if err != nil {
		return h.fail(c, "wishlist.toggle.fail", pid, err)
	}
	applog.Audit(c, "wishlist.toggle", map[string]any{"product": pid, "saved": saved})
	return c.JSON(fiber.Map{"productId": pid, "saved": saved})
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	pid, ok := h.productID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "missing productId")
	}
	if err := h.Wish.Remove(c.UserContext(), sessionID(c), pid); err != nil {
		return h.fail(c, "wishlist.unsave.fail", pid, err)
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.JSON(fiber.Map{"productId": pid, "saved": false})
}
