package handlers

import (
	"errors"

	"storefront/internal/catalog"
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// Search is the search-as-you-type endpoint. Each keystroke may fire a
// request; only the latest one per session gets a body; replaced requests
// answer 204.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	values, err := listingValues(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "enter a valid keyword (letters/numbers only)")
	}
	m := h.Catalog.Manager(values)

	res, err := h.Catalog.Search(c.UserContext(), sessionID(c), m.State())
	switch {
	case errors.Is(err, catalog.ErrSuperseded):
		return c.SendStatus(fiber.StatusNoContent)
	case err != nil:
		log.Error(c, "search.error", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load results, please retry")
	}
	return c.JSON(fiber.Map{
		"items":      cards(res.Items),
		"totalCount": res.TotalCount,
		"totalPages": res.TotalPages,
		"page":       res.Page,
		"query":      m.Values().Encode(),
	})
}
