package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "malformed request")
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return apiError(c, fiber.StatusUnauthorized, services.ErrBadCreds.Error())
	}
	if !validate.Password(req.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return apiError(c, fiber.StatusUnauthorized, services.ErrBadCreds.Error())
	}

	u, err := h.Auth.Login(c.UserContext(), sessionID(c), email, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return apiError(c, fiber.StatusUnauthorized, services.ErrBadCreds.Error())
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"user": u})
}

// Logout unbinds the user but keeps the session, so the cart survives.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), sessionID(c)); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not log out")
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": currentUser(c)})
}
