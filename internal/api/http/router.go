package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/api/http/handlers"
	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Categories     *handlers.CategoriesHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	authGroup.Put("/change-password", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	staffOnly := auth.RequireRole(domain.RoleAgent, domain.RoleAdmin)
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	// Statistics before /:id so the static segment wins.
	tickets.Get("/admin/statistics", staffOnly, cfg.Stats.Get)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Patch("/:id/assign", staffOnly, cfg.Tickets.Assign)
	tickets.Post("/:id/vote", cfg.Tickets.Vote)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)

	categories := app.Group("/categories", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Post("/", adminOnly, cfg.Categories.Create)
	categories.Put("/:id", adminOnly, cfg.Categories.Update)
	categories.Patch("/:id/toggle-status", adminOnly, cfg.Categories.ToggleStatus)
	categories.Delete("/:id", adminOnly, cfg.Categories.Delete)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	users.Get("/agents", staffOnly, cfg.Users.ListAgents)
	users.Get("/", adminOnly, cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Get("/:id/dashboard", cfg.Users.Dashboard)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", adminOnly, cfg.Users.Delete)
}
