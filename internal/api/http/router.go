package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/re-allocator/internal/api/http/handlers"
	"github.com/spec-kit/re-allocator/internal/auth"
	"github.com/spec-kit/re-allocator/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Approvals      *handlers.ApprovalsHandler
	Resources      *handlers.ResourcesHandler
	Departments    *handlers.DepartmentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role gates are the coarse filter; the
// fine-grained departmental ownership check lives in the booking service.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/signin", cfg.Users.SignIn)
	app.Post("/auth/signout", cfg.Users.SignOut)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	api.Post("/users", adminOnly, cfg.Users.CreateUser)
	api.Get("/users", adminOnly, cfg.Users.ListUsers)
	api.Get("/users/:id", cfg.Users.GetUser)

	api.Post("/departments", adminOnly, cfg.Departments.Create)
	api.Get("/departments", cfg.Departments.List)
	api.Get("/departments/:departmentId", cfg.Departments.Get)
	api.Get("/departments/:departmentId/resources", cfg.Resources.ListByDepartment)

	api.Post("/resources", adminOnly, cfg.Resources.Create)
	api.Patch("/resources/:resourceId", adminOnly, cfg.Resources.Update)
	api.Get("/resources", cfg.Resources.List)
	api.Get("/resources/:resourceId", cfg.Resources.Get)

	api.Post("/tickets/:resourceId", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:ticketId", cfg.Tickets.GetTicket)
	api.Get("/user-tickets/:userId", cfg.Tickets.ListTicketsByUser)
	api.Get("/hod-tickets/:hodId", auth.RequireRole(domain.RoleHOD, domain.RoleAdmin), cfg.Tickets.ListTicketsByHOD)
	api.Get("/availability/:resourceId/:date", cfg.Tickets.GetAvailability)

	hodOnly := auth.RequireRole(domain.RoleHOD)
	api.Post("/approvals/approve/:ticketId", hodOnly, cfg.Approvals.Approve)
	api.Post("/approvals/reject/:ticketId", hodOnly, cfg.Approvals.Reject)
	api.Post("/approvals/complete/:ticketId", hodOnly, cfg.Approvals.Complete)
	api.Get("/approvals", hodOnly, cfg.Approvals.ListMine)
}
