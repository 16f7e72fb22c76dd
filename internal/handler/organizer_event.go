package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuehub/event-ticketing/internal/middleware"
	"github.com/venuehub/event-ticketing/internal/model"
	"github.com/venuehub/event-ticketing/internal/repository"
)

// OrganizerHandler covers the management surface: creating events,
// creating sessions with their seat catalogs, and deactivating
// events.  All routes sit behind the manage_events capability.
type OrganizerHandler struct {
	Events   *repository.EventRepo
	Sessions *repository.SessionRepo
}

func NewOrganizerHandler(e *repository.EventRepo, s *repository.SessionRepo) *OrganizerHandler {
	return &OrganizerHandler{Events: e, Sessions: s}
}

var eventTypes = map[string]bool{
	"EXHIBITION": true,
	"WORKSHOP":   true,
	"KEYNOTE":    true,
}

var slotTypes = map[string]bool{
	"MORNING":   true,
	"AFTERNOON": true,
	"EVENING":   true,
}

type createEventReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventType   string  `json:"event_type"`
	StartDate   string  `json:"start_date"` // YYYY-MM-DD
	EndDate     string  `json:"end_date"`   // YYYY-MM-DD
	Venue       string  `json:"venue"`
	MaxCapacity uint32  `json:"max_capacity"`
}

type catalogSeatReq struct {
	SeatLabel  string `json:"seat_label"`
	Section    string `json:"section"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	PriceCents uint32 `json:"price_cents"`
}

type createSessionReq struct {
	Name     string           `json:"name"`
	TimeSlot string           `json:"time_slot"`
	SlotType string           `json:"slot_type"`
	Date     string           `json:"date"` // YYYY-MM-DD
	Seats    []catalogSeatReq `json:"seats"`
}

// CreateEvent inserts a new event owned by the caller.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Venue = strings.TrimSpace(req.Venue)
	req.EventType = strings.ToUpper(strings.TrimSpace(req.EventType))
	if req.Title == "" || req.Venue == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and venue required"})
	}
	if !eventTypes[req.EventType] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_type must be EXHIBITION, WORKSHOP or KEYNOTE"})
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}
	if req.MaxCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := &model.Event{
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		StartDate:   start,
		EndDate:     end,
		Venue:       req.Venue,
		MaxCapacity: req.MaxCapacity,
		OrganizerID: uid,
	}
	if err := h.Events.Create(ctx, e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toPublicEvent(*e))
}

// CreateSession adds a session with its immutable seat catalog to an
// event.  The session row and the whole catalog are written in one
// transaction so a half-created catalog can never be booked against.
func (h *OrganizerHandler) CreateSession(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	req.SlotType = strings.ToUpper(strings.TrimSpace(req.SlotType))
	if req.Name == "" || req.TimeSlot == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and time_slot required"})
	}
	if !slotTypes[req.SlotType] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_type must be MORNING, AFTERNOON or EVENING"})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if len(req.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat catalog required"})
	}
	seats := make([]model.CatalogSeat, 0, len(req.Seats))
	seen := make(map[string]bool, len(req.Seats))
	for _, s := range req.Seats {
		label := strings.ToUpper(strings.TrimSpace(s.SeatLabel))
		if label == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_label required on every seat"})
		}
		if seen[label] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat label " + label})
		}
		seen[label] = true
		seats = append(seats, model.CatalogSeat{
			SeatLabel:  label,
			Section:    strings.TrimSpace(s.Section),
			RowLabel:   strings.TrimSpace(s.RowLabel),
			SeatNumber: s.SeatNumber,
			PriceCents: s.PriceCents,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ev.OrganizerID != uid && getRole(c) != middleware.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}
	if date.Before(ev.StartDate) || date.After(ev.EndDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date outside event range"})
	}

	tx, err := h.Sessions.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sess := &model.Session{
		EventID:        eventID,
		Name:           req.Name,
		TimeSlot:       req.TimeSlot,
		SlotType:       req.SlotType,
		Date:           date,
		MaxCapacity:    uint32(len(seats)),
		AvailableSeats: uint32(len(seats)),
	}
	if err := h.Sessions.CreateTx(ctx, tx, sess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	if err := h.Sessions.CreateCatalogBulkTx(ctx, tx, sess.ID, seats); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat label in catalog"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create catalog failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"session": toPublicSession(*sess),
		"seats":   len(seats),
	})
}

// DeactivateEvent hides an event from public listings.  Bookings
// already made stay intact.
func (h *OrganizerHandler) DeactivateEvent(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Events.Deactivate(ctx, eventID, uid, getRole(c) == middleware.RoleAdmin)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
}
