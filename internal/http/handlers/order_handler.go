package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Checkout *services.CheckoutService
}

type addressReq struct {
	Shipping              domain.Address  `json:"shipping"`
	BillingSameAsShipping *bool           `json:"billingSameAsShipping"`
	Billing               *domain.Address `json:"billing"`
}

func checkoutError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, checkout.ErrInvalidAddress), errors.Is(err, checkout.ErrInvalidPayment):
		applog.Security(c, "validation.fail", map[string]any{"field": "checkout", "reason": err.Error()})
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "your cart is empty", "link": catalogLink})
	case errors.Is(err, checkout.ErrWrongStep):
		return apiError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrPlacementFailed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "your order could not be placed, please try again", "retry": true,
		})
	}
	applog.Error(c, "checkout.error", err, nil)
	return apiError(c, fiber.StatusInternalServerError, "could not load checkout")
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	v, err := h.Checkout.Get(c.UserContext(), sessionID(c))
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(v)
}

func (h *OrderHandler) Address(c *fiber.Ctx) error {
	var req addressReq
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "malformed request")
	}
	same := req.BillingSameAsShipping == nil || *req.BillingSameAsShipping
	for _, a := range []*domain.Address{&req.Shipping, req.Billing} {
		if a == nil || (a == req.Billing && same) {
			continue
		}
		if _, ok := validate.Postal(a.PostalCode); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "postalCode"})
			return apiError(c, fiber.StatusBadRequest, "enter a valid postal code")
		}
	}
	v, err := h.Checkout.SetAddress(c.UserContext(), sessionID(c), req.Shipping, same, req.Billing)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(v)
}

func (h *OrderHandler) Payment(c *fiber.Ctx) error {
	var m domain.PaymentMethod
	if err := c.BodyParser(&m); err != nil {
		return apiError(c, fiber.StatusBadRequest, "malformed request")
	}
	v, err := h.Checkout.SetPayment(c.UserContext(), sessionID(c), m)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(v)
}

// Place hands back the order id and total directly; the confirmation view
// fetches the rest by id.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	email := ""
	if u := currentUser(c); u != nil {
		email = u.Email
	}
	o, err := h.Checkout.Place(c.UserContext(), sessionID(c), email)
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"error": err.Error()})
		return checkoutError(c, err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"items":    len(o.Items),
		"total":    o.Totals.Total.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orderId": o.ID, "total": o.Totals.Total})
}

func (h *OrderHandler) Reset(c *fiber.Ctx) error {
	v, err := h.Checkout.Reset(c.UserContext(), sessionID(c))
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(v)
}

// View shows an order to the session that placed it; other sessions get the
// same 404 as a missing order.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "order not found")
	}
	o, err := h.Checkout.Order(c.UserContext(), sessionID(c), oid)
	if errors.Is(err, services.ErrOrderNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return notFound(c, "order not found")
	}
	if err != nil {
		applog.Error(c, "order.view.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load order")
	}
	return c.JSON(o)
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Checkout.Orders(c.UserContext(), sessionID(c))
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load orders")
	}
	return c.JSON(fiber.Map{"orders": orders})
}
