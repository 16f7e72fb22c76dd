package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuehub/event-ticketing/internal/middleware"
	"github.com/venuehub/event-ticketing/internal/repository"
	"github.com/venuehub/event-ticketing/internal/service"
)

// BookingHandler exposes the reservation flow: book a seat, list own
// bookings, fetch one booking.
type BookingHandler struct {
	Reservations *service.Reservation
	Bookings     *repository.BookingRepo
	Tickets      *repository.TicketRepo
}

func NewBookingHandler(r *service.Reservation, b *repository.BookingRepo, t *repository.TicketRepo) *BookingHandler {
	return &BookingHandler{Reservations: r, Bookings: b, Tickets: t}
}

type createBookingReq struct {
	SessionID     uint64 `json:"session_id"`
	SeatLabel     string `json:"seat_label"`
	PriceCents    uint32 `json:"price_cents"`
	PaymentMethod string `json:"payment_method"`
}

// CreateBooking reserves one seat for the authenticated user and
// returns the booking together with its issued ticket.  The outcome
// maps onto HTTP statuses as follows: unknown session 404, seat not
// in catalog or bad input 400, seat already sold 409, storage trouble
// 500.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, ticket, err := h.Reservations.Reserve(ctx, service.ReserveInput{
		SessionID:     req.SessionID,
		SeatLabel:     req.SeatLabel,
		UserID:        uid,
		PaymentMethod: req.PaymentMethod,
		PriceCents:    req.PriceCents,
	})
	if err != nil {
		return reserveError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking": booking,
		"ticket":  ticket,
	})
}

// reserveError translates allocator errors into API responses.
func reserveError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound), errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, repository.ErrInvalidSeat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat is not part of this session"})
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSeatAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already booked"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}

// MyBookings lists the caller's bookings, newest first, each joined
// with its event, session and ticket.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// GetBooking returns one booking with its ticket.  Customers may only
// read their own bookings; admins may read any.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.UserID != uid && getRole(c) != middleware.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}

	ticket, err := h.Tickets.GetByBooking(ctx, b.ID)
	if err != nil && !errors.Is(err, repository.ErrTicketNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b, "ticket": ticket})
}
