package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/store"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type addItemReq struct {
	ProductID string `json:"productId" form:"productId"`
	Qty       int    `json:"qty" form:"qty"`
	Size      string `json:"size" form:"size"`
	Color     string `json:"color" form:"color"`
}

type lineReq struct {
	Key string `json:"key" form:"key"`
	Qty int    `json:"qty" form:"qty"`
}

// cartError maps cart failures onto status codes. Nothing was changed when
// any of these is returned.
func cartError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return notFound(c, "product not found")
	case errors.Is(err, store.ErrLineNotFound):
		return notFound(c, "item is no longer in your cart")
	case errors.Is(err, store.ErrOutOfStock):
		return apiError(c, fiber.StatusConflict, "out of stock")
	case store.IsValidation(err):
		applog.Security(c, "validation.fail", map[string]any{"field": "cart", "reason": err.Error()})
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	applog.Error(c, "cart.error", err, nil)
	return apiError(c, fiber.StatusInternalServerError, "could not update cart, please retry")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), sessionID(c))
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addItemReq
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "malformed request")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "missing productId")
	}
	if req.Qty == 0 {
		req.Qty = 1
	}
	qty, capped, ok := validate.Qty(req.Qty)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, store.ErrInvalidQuantity.Error())
	}

	res, cv, err := h.Cart.Add(c.UserContext(), sessionID(c), pid, qty, req.Size, req.Color)
	if err != nil {
		return cartError(c, err)
	}
	if capped {
		res.Outcome, res.Requested = store.Truncated, req.Qty
	}
	applog.Audit(c, "cart.add", map[string]any{"product": pid, "qty": res.Line.Quantity, "outcome": res.Outcome})

	status := fiber.StatusOK
	if res.Outcome == store.Added {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"outcome":   res.Outcome,
		"line":      res.Line,
		"requested": res.Requested,
		"cart":      cv,
	})
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	var req lineReq
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return apiError(c, fiber.StatusBadRequest, "missing key")
	}
	qty, capped, ok := validate.Qty(req.Qty)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "quantity cannot be negative")
	}
	out, cv, err := h.Cart.Update(c.UserContext(), sessionID(c), req.Key, qty)
	if err != nil {
		return cartError(c, err)
	}
	if capped {
		out = store.Truncated
	}
	return c.JSON(fiber.Map{"outcome": out, "cart": cv})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	var req lineReq
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return apiError(c, fiber.StatusBadRequest, "missing key")
	}
	cv, err := h.Cart.Remove(c.UserContext(), sessionID(c), req.Key)
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(fiber.Map{"outcome": store.Removed, "cart": cv})
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), sessionID(c)); err != nil {
		return cartError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
