package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ternak-go-api/internal/config"
	"github.com/noah-isme/ternak-go-api/internal/handler"
	"github.com/noah-isme/ternak-go-api/internal/middleware"
	"github.com/noah-isme/ternak-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AnimalHandler   *handler.AnimalHandler
	ActivityHandler *handler.ActivityHandler
	HealthChecks    map[string]handler.DependencyCheck
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	if deps.AnimalHandler != nil {
		deps.AnimalHandler.Register(api.Group("/animals", jwtMiddleware))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(
			api.Group("/activities", jwtMiddleware),
			middleware.RequireRole("admin"),
			middleware.RateLimit("birthdays", 5, time.Minute),
		)
	}
}
