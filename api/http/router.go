package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artem13815/accounts/api/http/handlers"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Audit  *handlers.AuditHandler
	Health *handlers.HealthHandler
	// RequireAuth guards the listing endpoints.
	RequireAuth fiber.Handler
	// Metrics is exposed on /metrics when set.
	Metrics prometheus.Gatherer
}

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, h Handlers) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", h.Health.Health)
	v1.Get("/ready", h.Health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", h.Auth.Register)
	a.Post("/login", h.Auth.Login)
	a.Get("/users", h.RequireAuth, h.Users.List)
	a.Get("/logs", h.RequireAuth, h.Audit.List)

	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics, promhttp.HandlerOpts{})))
	}

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)
}
