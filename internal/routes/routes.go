package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/config"
	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/handlers"
	"github.com/example/ruangtamu/internal/middleware"
	"github.com/example/ruangtamu/internal/models"
	"github.com/example/ruangtamu/internal/services"
	"github.com/example/ruangtamu/internal/session"
)

// Deps carries the shared services the route handlers depend on.
type Deps struct {
	Config   *config.Config
	Gateway  *gateway.Client
	Sessions *session.Manager
	Checkin  *services.CheckinService
	Audit    *services.DBAuditLog
	Poller   *services.QueuePoller
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Sessions, deps.Config)
	guestHandler := handlers.NewGuestHandler(deps.Gateway, deps.Config)
	checkinHandler := handlers.NewCheckinHandler(deps.Gateway, deps.Checkin, deps.Sessions)
	queueHandler := handlers.NewQueueHandler(deps.Gateway, deps.Poller)
	adminHandler := handlers.NewAdminHandler(deps.Gateway, deps.Audit)
	backendHandler := handlers.NewBackendHandler(deps.Gateway)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Guest card lookup is public so printed QR codes resolve without a
	// station session.
	api.Get("/guests/:uid/qr", guestHandler.QR)
	api.Get("/guests/:uid/card", guestHandler.Get)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(deps.Config))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/session", authHandler.Session)
	protected.Put("/auth/profile", authHandler.UpdateProfile)

	staff := protected.Group("", middleware.RequireRole(models.RoleAdmin, models.RoleRunner))
	staff.Get("/guests", guestHandler.List)
	staff.Get("/guests/:uid", guestHandler.Get)
	staff.Get("/queue", queueHandler.Queue)
	staff.Post("/guests/:uid/take", checkinHandler.Take)
	staff.Get("/runners/:id/completed", queueHandler.RunnerCompleted)

	admin := protected.Group("", middleware.RequireRole(models.RoleAdmin))
	admin.Post("/guests", guestHandler.Create)
	admin.Post("/guests/search", guestHandler.Search)
	admin.Post("/guests/:uid/check-in", checkinHandler.CheckIn)
	admin.Post("/guests/:uid/cancel-check-in", checkinHandler.Cancel)
	admin.Get("/admin/stats", adminHandler.DashboardStats)
	admin.Get("/admin/activity", adminHandler.RecentActivity)

	backend := admin.Group("/backend")
	backend.All("/*", backendHandler.Proxy)
}
