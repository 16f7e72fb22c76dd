package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role names carried in the JWT "role" claim.
const (
	RoleCustomer  = "CUSTOMER"
	RoleOrganizer = "ORGANIZER"
	RoleAdmin     = "ADMIN"
)

// Actions guarded by the capability table. Keeping access control as
// a (role, action) lookup decouples it from the handlers: the
// reservation allocator and the other services never inspect roles
// themselves.
const (
	ActionBookSeat      = "book_seat"
	ActionViewBookings  = "view_bookings"
	ActionManageEvents  = "manage_events"
	ActionCheckInTicket = "check_in_ticket"
	ActionManageUsers   = "manage_users"
)

// capabilities maps each role to the actions it may perform.
var capabilities = map[string]map[string]bool{
	RoleCustomer: {
		ActionBookSeat:     true,
		ActionViewBookings: true,
	},
	RoleOrganizer: {
		ActionBookSeat:      true,
		ActionViewBookings:  true,
		ActionManageEvents:  true,
		ActionCheckInTicket: true,
	},
	RoleAdmin: {
		ActionBookSeat:      true,
		ActionViewBookings:  true,
		ActionManageEvents:  true,
		ActionCheckInTicket: true,
		ActionManageUsers:   true,
	},
}

// Can reports whether a role may perform an action. Unknown roles and
// unknown actions are both denied.
func Can(role, action string) bool {
	return capabilities[role][action]
}

// RequireCapability returns a middleware that aborts the request with
// 403 Forbidden unless the authenticated role may perform the given
// action. It assumes JWTAuth has already stored the role in the
// context under "role".
func RequireCapability(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !Can(role, action) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRole returns a middleware that enforces that the
// authenticated user has one of the specified roles. It is used for
// coarse route grouping; fine-grained checks go through
// RequireCapability.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
