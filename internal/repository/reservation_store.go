package repository

import (
	"context"
	"fmt"

	"github.com/venuehub/event-ticketing/internal/model"
)

// ReservationStore performs the one correctness-critical write of the
// system: inserting a booking and issuing its ticket in a single
// database transaction. The booking insert is conditioned on the
// uq_session_seat unique key, so two concurrent callers that both
// observed a free seat cannot both commit; the loser's insert fails
// with ErrSeatAlreadyBooked and the whole transaction rolls back,
// leaving no orphan ticket behind.
type ReservationStore struct {
	bookings *BookingRepo
	tickets  *TicketRepo
	sessions *SessionRepo

	// numberPrefix is the human-readable ticket number prefix, e.g. "VU".
	numberPrefix string
	// payloadFn derives the scannable ticket payload from a booking ID.
	payloadFn func(bookingID uint64) (string, error)
}

// NewReservationStore wires the repositories participating in the
// reservation transaction. payloadFn must be deterministic-per-call
// and must not touch the database.
func NewReservationStore(sessions *SessionRepo, bookings *BookingRepo, tickets *TicketRepo, numberPrefix string, payloadFn func(uint64) (string, error)) *ReservationStore {
	if sessions == nil || bookings == nil || tickets == nil || payloadFn == nil {
		panic("nil dependency passed to NewReservationStore")
	}
	return &ReservationStore{
		bookings:     bookings,
		tickets:      tickets,
		sessions:     sessions,
		numberPrefix: numberPrefix,
		payloadFn:    payloadFn,
	}
}

// CreateBookingWithTicket atomically appends a booking to the ledger
// and issues its ticket. On success both records are committed and
// returned; on any failure the transaction is rolled back and neither
// record exists. ErrSeatAlreadyBooked is returned when the unique key
// rejects the booking insert.
func (s *ReservationStore) CreateBookingWithTicket(ctx context.Context, b *model.Booking) (*model.Ticket, error) {
	tx, err := s.sessions.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}

	number, err := s.tickets.NextNumberTx(ctx, tx, s.numberPrefix)
	if err != nil {
		return nil, err
	}
	payload, err := s.payloadFn(b.ID)
	if err != nil {
		return nil, err
	}
	ticket := &model.Ticket{
		BookingID:    b.ID,
		TicketNumber: number,
		QRPayload:    payload,
	}
	if err := s.tickets.CreateTx(ctx, tx, ticket); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reservation tx: %w", err)
	}
	committed = true
	return ticket, nil
}

// Session returns the session header for precondition checks.
func (s *ReservationStore) Session(ctx context.Context, sessionID uint64) (*model.Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// Catalog returns the session's seat catalog.
func (s *ReservationStore) Catalog(ctx context.Context, sessionID uint64) ([]model.CatalogSeat, error) {
	return s.sessions.Catalog(ctx, sessionID)
}

// BookedSeatLabels returns the seat labels already present in the
// ledger for a session.
func (s *ReservationStore) BookedSeatLabels(ctx context.Context, sessionID uint64) ([]string, error) {
	return s.bookings.SeatLabels(ctx, sessionID)
}

// RecountAvailability refreshes the denormalized available-seat count
// from the ledger after a successful reservation.
func (s *ReservationStore) RecountAvailability(ctx context.Context, sessionID uint64) error {
	return s.sessions.RecountAvailability(ctx, sessionID)
}
