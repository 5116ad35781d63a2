package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Sandesh225/smartpokhara-sub002/internal/api/http/handlers"
	"github.com/Sandesh225/smartpokhara-sub002/internal/auth"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Staff          *handlers.StaffHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Capability enforcement happens in the
// services; route-level role guards only fence off whole route groups.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/staff/login", cfg.Staff.Login)

	// Public tracking lookup, no auth.
	app.Get("/track/:code", cfg.Requests.Track)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle)
	requests.Post("", cfg.Requests.Submit)
	requests.Get("", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Get("/:id/history", cfg.Requests.History)
	requests.Get("/:id/escalation", cfg.Requests.OpenEscalation)
	requests.Post("/:id/intake", cfg.Requests.Intake)
	requests.Post("/:id/assign", cfg.Requests.Assign)
	requests.Post("/:id/accept", cfg.Requests.Accept)
	requests.Post("/:id/reject", cfg.Requests.Reject)
	requests.Post("/:id/progress", cfg.Requests.Progress)
	requests.Post("/:id/resolve", cfg.Requests.Resolve)
	requests.Post("/:id/close", cfg.Requests.Close)
	requests.Post("/:id/reopen", cfg.Requests.Reopen)
	requests.Post("/:id/escalate", cfg.Requests.Escalate)

	escalations := app.Group("/escalations", cfg.AuthMiddleware.Handle, auth.RequireCapability(domain.CapResolveEscalation))
	escalations.Post("/sweep", cfg.Requests.Sweep)
	escalations.Post("/:id/resolve", cfg.Requests.ResolveEscalation)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staff.Post("", cfg.Staff.Create)
	staff.Get("", cfg.Staff.List)
	staff.Get("/:id", cfg.Staff.Get)
	staff.Put("/:id/availability", cfg.Staff.SetAvailability)

	stats := app.Group("/stats", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleSupervisor))
	stats.Get("/compliance", cfg.Stats.Compliance)
	stats.Get("/groups", cfg.Stats.Groups)
	stats.Get("/trend", cfg.Stats.Trend)
	stats.Get("/metrics", cfg.Stats.Metrics)
}
