package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuehub/event-ticketing/internal/model"
	"github.com/venuehub/event-ticketing/internal/repository"
	"github.com/venuehub/event-ticketing/internal/service"
)

// BrowseHandler serves the unauthenticated read side: event listings,
// session listings and per-session seat availability.  Responses are
// sanitized DTOs so internal columns never leak to guests.
type BrowseHandler struct {
	Events       *repository.EventRepo
	Sessions     *repository.SessionRepo
	Availability *service.Availability
}

func NewBrowseHandler(e *repository.EventRepo, s *repository.SessionRepo, a *service.Availability) *BrowseHandler {
	return &BrowseHandler{Events: e, Sessions: s, Availability: a}
}

type publicEvent struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	EventType   string  `json:"event_type"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Venue       string  `json:"venue"`
	MaxCapacity uint32  `json:"max_capacity"`
}

type publicSession struct {
	ID             uint64 `json:"id"`
	EventID        uint64 `json:"event_id"`
	Name           string `json:"name"`
	TimeSlot       string `json:"time_slot"`
	SlotType       string `json:"slot_type"`
	Date           string `json:"date"`
	MaxCapacity    uint32 `json:"max_capacity"`
	AvailableSeats uint32 `json:"available_seats"`
}

func toPublicEvent(e model.Event) publicEvent {
	return publicEvent{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		EventType:   e.EventType,
		StartDate:   e.StartDate.Format("2006-01-02"),
		EndDate:     e.EndDate.Format("2006-01-02"),
		Venue:       e.Venue,
		MaxCapacity: e.MaxCapacity,
	}
}

func toPublicSession(s model.Session) publicSession {
	return publicSession{
		ID:             s.ID,
		EventID:        s.EventID,
		Name:           s.Name,
		TimeSlot:       s.TimeSlot,
		SlotType:       s.SlotType,
		Date:           s.Date.Format("2006-01-02"),
		MaxCapacity:    s.MaxCapacity,
		AvailableSeats: s.AvailableSeats,
	}
}

// ListEvents returns all active events ordered by start date.
func (h *BrowseHandler) ListEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicEvent, 0, len(events))
	for _, e := range events {
		out = append(out, toPublicEvent(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent returns one event by ID.
func (h *BrowseHandler) GetEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toPublicEvent(*e))
}

// ListSessions returns the sessions of an event, optionally filtered
// by an exact date given as ?date=YYYY-MM-DD.
func (h *BrowseHandler) ListSessions(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	date := c.QueryParam("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	sessions, err := h.Sessions.ListByEventAndDate(ctx, eventID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toPublicSession(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// SessionAvailability returns the derived availability view for one
// session: the free seat labels plus the full catalog.  The view is
// recomputed from the booking ledger on every call, so it never goes
// stale the way a cached counter can.
func (h *BrowseHandler) SessionAvailability(c echo.Context) error {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	view, err := h.Availability.ForSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, view)
}
