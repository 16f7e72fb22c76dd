package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehub/event-ticketing/internal/model"
	"github.com/venuehub/event-ticketing/internal/repository"
	"github.com/venuehub/event-ticketing/internal/service"
)

// stubStore backs the allocator in handler tests with one session and
// a two-seat catalog kept in memory.
type stubStore struct {
	booked map[string]bool
	nextID uint64
}

func newStubStore() *stubStore {
	return &stubStore{booked: make(map[string]bool)}
}

func (s *stubStore) Session(_ context.Context, id uint64) (*model.Session, error) {
	if id != 7 {
		return nil, repository.ErrSessionNotFound
	}
	return &model.Session{ID: 7, EventID: 3, IsActive: true}, nil
}

func (s *stubStore) Catalog(_ context.Context, _ uint64) ([]model.CatalogSeat, error) {
	return []model.CatalogSeat{
		{SessionID: 7, SeatLabel: "A1", PriceCents: 5000},
		{SessionID: 7, SeatLabel: "A2", PriceCents: 5000},
	}, nil
}

func (s *stubStore) BookedSeatLabels(_ context.Context, _ uint64) ([]string, error) {
	out := make([]string, 0, len(s.booked))
	for l := range s.booked {
		out = append(out, l)
	}
	return out, nil
}

func (s *stubStore) CreateBookingWithTicket(_ context.Context, b *model.Booking) (*model.Ticket, error) {
	if s.booked[b.SeatLabel] {
		return nil, repository.ErrSeatAlreadyBooked
	}
	s.booked[b.SeatLabel] = true
	s.nextID++
	b.ID = s.nextID
	return &model.Ticket{
		BookingID:    b.ID,
		TicketNumber: fmt.Sprintf("VU-%06d", s.nextID),
		QRPayload:    "p",
	}, nil
}

func (s *stubStore) RecountAvailability(_ context.Context, _ uint64) error { return nil }

func postBooking(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(42)) // as the JWT middleware stores it
	c.Set("role", "CUSTOMER")
	require.NoError(t, h.CreateBooking(c))
	return rec
}

func newBookingHandler() *BookingHandler {
	svc := service.NewReservation(newStubStore(), nil)
	return NewBookingHandler(svc, nil, nil)
}

func TestCreateBookingStatuses(t *testing.T) {
	valid := `{"session_id":7,"seat_label":"A1","price_cents":5000,"payment_method":"CREDIT_CARD"}`

	t.Run("created", func(t *testing.T) {
		rec := postBooking(t, newBookingHandler(), valid)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "VU-000001")
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		rec := postBooking(t, newBookingHandler(),
			`{"session_id":99,"seat_label":"A1","price_cents":5000,"payment_method":"CREDIT_CARD"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("seat outside catalog is 400", func(t *testing.T) {
		rec := postBooking(t, newBookingHandler(),
			`{"session_id":7,"seat_label":"Z9","price_cents":5000,"payment_method":"CREDIT_CARD"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad payment method is 400", func(t *testing.T) {
		rec := postBooking(t, newBookingHandler(),
			`{"session_id":7,"seat_label":"A1","price_cents":5000,"payment_method":"IOU"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("double booking is 409", func(t *testing.T) {
		h := newBookingHandler()
		first := postBooking(t, h, valid)
		require.Equal(t, http.StatusCreated, first.Code)
		second := postBooking(t, h, valid)
		assert.Equal(t, http.StatusConflict, second.Code)
	})

	t.Run("missing identity is 401", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(valid))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, newBookingHandler().CreateBooking(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
