package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuehub/event-ticketing/internal/middleware"
	"github.com/venuehub/event-ticketing/internal/repository"
	"github.com/venuehub/event-ticketing/internal/utils"
)

// TicketHandler serves ticket lookup and gate check-in.  Check-in
// sits behind the check_in_ticket capability; lookup is open to gate
// staff and to the customer the ticket was issued to.
type TicketHandler struct {
	Tickets   *repository.TicketRepo
	Bookings  *repository.BookingRepo
	JWTSecret string
}

func NewTicketHandler(t *repository.TicketRepo, b *repository.BookingRepo, jwtSecret string) *TicketHandler {
	return &TicketHandler{Tickets: t, Bookings: b, JWTSecret: jwtSecret}
}

// GetTicket looks a ticket up by its sequential number.  Callers
// without the check_in_ticket capability may only read tickets issued
// for their own bookings.
func (h *TicketHandler) GetTicket(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if !middleware.Can(getRole(c), middleware.ActionCheckInTicket) {
		b, err := h.Bookings.GetByID(ctx, t.BookingID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if b.UserID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ticket"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

type checkInReq struct {
	QRPayload string `json:"qr_payload"`
}

// CheckIn marks a ticket as used at the door.  When the scanner sends
// the QR payload along, its signature is verified against the ticket
// before the check-in is recorded; a ticket can be checked in only
// once.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	staffID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket number required"})
	}

	var req checkInReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if payload := strings.TrimSpace(req.QRPayload); payload != "" {
		bookingID, err := utils.VerifyTicketPayload(h.JWTSecret, payload)
		if err != nil || bookingID != t.BookingID || payload != t.QRPayload {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr payload does not match ticket"})
		}
	}

	checked, err := h.Tickets.CheckIn(ctx, number, staffID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"ticket": checked})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already checked in"})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
}
