package router // route registration for the ticketing API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/venuehub/event-ticketing/internal/config"
	"github.com/venuehub/event-ticketing/internal/handler"
	"github.com/venuehub/event-ticketing/internal/middleware"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Auth       *handler.AuthHandler
	Browse     *handler.BrowseHandler
	Booking    *handler.BookingHandler
	Organizer  *handler.OrganizerHandler
	Ticket     *handler.TicketHandler
	AdminUsers *handler.AdminUserHandler
}

// Register wires every route of the API onto the Echo instance.
// Public browse endpoints are cached in Redis and rate limited when a
// Redis client is available; rdb may be nil, in which case both
// middlewares turn into no-ops.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	// Unauthenticated auth flows.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	auth.POST("/logout", h.Auth.Logout) // single-session logout via refresh token in body

	// Public browse side. Short-TTL Redis caching keeps hot listing
	// and availability reads off the database.
	public := e.Group("/v1")
	if rdb != nil {
		public.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	public.GET("/events", h.Browse.ListEvents)
	public.GET("/events/:id", h.Browse.GetEvent)
	public.GET("/events/:id/sessions", h.Browse.ListSessions)
	public.GET("/sessions/:id/availability", h.Browse.SessionAvailability)

	// Everything below needs a valid access token.
	authed := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	authed.GET("/me", h.Auth.Me)
	authed.POST("/logout", h.Auth.Logout) // logout-everywhere

	// Booking surface: any role that can book a seat.
	booking := authed.Group("", middleware.RequireCapability(middleware.ActionBookSeat))
	booking.POST("/bookings", h.Booking.CreateBooking)

	views := authed.Group("", middleware.RequireCapability(middleware.ActionViewBookings))
	views.GET("/my-bookings", h.Booking.MyBookings)
	views.GET("/bookings/:id", h.Booking.GetBooking)

	// Management surface: organizers and admins.
	manage := authed.Group("", middleware.RequireCapability(middleware.ActionManageEvents))
	manage.POST("/events", h.Organizer.CreateEvent)
	manage.POST("/events/:id/sessions", h.Organizer.CreateSession)
	manage.DELETE("/events/:id", h.Organizer.DeactivateEvent)

	// Ticket lookup does its own owner-or-staff check; check-in is
	// gate staff only.
	authed.GET("/tickets/:number", h.Ticket.GetTicket)
	gate := authed.Group("", middleware.RequireCapability(middleware.ActionCheckInTicket))
	gate.POST("/tickets/:number/check-in", h.Ticket.CheckIn)

	// User management: coarse role gate first, then the capability.
	admin := authed.Group("/admin",
		middleware.RequireRole(middleware.RoleAdmin),
		middleware.RequireCapability(middleware.ActionManageUsers),
	)
	admin.GET("/users", h.AdminUsers.ListUsers)
	admin.POST("/users", h.AdminUsers.CreateUser)
	admin.GET("/users/:id", h.AdminUsers.GetUser)
	admin.PATCH("/users/:id", h.AdminUsers.UpdateUser)
	admin.DELETE("/users/:id", h.AdminUsers.DeleteUser)
}
