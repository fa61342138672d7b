package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/services"
	"storefront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}

	avail, err := h.Inv.CheckAvailability(productID)
	if err != nil {
		return notFound(c, "product not found")
	}
	return c.JSON(fiber.Map{
		"productId": productID,
		"status":    avail.State,
		"qty":       avail.Available,
		"unlimited": avail.Unlimited,
	})
}
