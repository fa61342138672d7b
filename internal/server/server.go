package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
)

// CSRFHeader carries the token from the csrf_ cookie on unsafe requests.
const CSRFHeader = "X-CSRF-Token"

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

// New builds the fiber app with middleware and routes.
func New(cfg config.Config, svc handlers.Services) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
				if isAPI(c) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found", "link": "/products"})
				}
				return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found", "Link": "/products"})
			}
			applog.Error(c, "server.error", err, nil)
			if isAPI(c) {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong, please try again"})
			}
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(handlers.Session(svc.Auth))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + CSRFHeader,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			if isAPI(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed, refresh and retry"})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	d := handlers.NewDeps(svc)

	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/products") })
	app.Get("/products", d.ProductHandler.List)
	app.Get("/product", func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available", "Link": "/products"})
	})
	app.Get("/product/:id", d.ProductHandler.Detail)

	api := app.Group("/api/v1")
	api.Get("/products", d.ProductHandler.APIList)
	api.Get("/products/:id", d.ProductHandler.APIGet)
	api.Get("/facets", d.ProductHandler.Facets)
	api.Get("/search", limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|search"
		},
	}), d.SearchHandler.Search)
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.InventoryHandler.Check)

	// Cart
	api.Get("/cart", d.CartHandler.View)
	api.Delete("/cart", d.CartHandler.Clear)
	api.Post("/cart/items", d.CartHandler.Add)
	api.Put("/cart/items", d.CartHandler.Update)
	api.Post("/cart/items/remove", d.CartHandler.Remove)

	// Wishlist
	api.Get("/wishlist", d.WishlistHandler.List)
	api.Post("/wishlist", d.WishlistHandler.Save)
	api.Post("/wishlist/toggle", d.WishlistHandler.Toggle)
	api.Post("/wishlist/remove", d.WishlistHandler.Unsave)

	// Checkout & orders
	api.Get("/checkout", d.OrderHandler.Get)
	api.Post("/checkout/address", d.OrderHandler.Address)
	api.Post("/checkout/payment", d.OrderHandler.Payment)
	api.Post("/checkout/place", d.OrderHandler.Place)
	api.Post("/checkout/reset", d.OrderHandler.Reset)
	api.Get("/orders", d.OrderHandler.History)
	api.Get("/orders/:id", d.OrderHandler.View)

	// Auth (login throttled)
	api.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, please try again later"})
		},
	}), d.AuthHandler.Login)
	api.Post("/logout", d.AuthHandler.Logout)
	api.Get("/me", handlers.RequireUser(), d.AuthHandler.Me)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	return app
}
