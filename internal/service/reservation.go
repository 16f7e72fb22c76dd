// Package service holds the business operations behind the HTTP
// handlers. The reservation allocator in this file is the one piece
// of the system with a real invariant to protect: a seat within a
// session is sold to at most one paying party, no matter how many
// requests race for it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/venuehub/event-ticketing/internal/model"
	"github.com/venuehub/event-ticketing/internal/queue"
	"github.com/venuehub/event-ticketing/internal/repository"
)

// maxReserveAttempts bounds the retry loop for transient storage
// conflicts (deadlocks, lock wait timeouts). Duplicate-key conflicts
// are never retried; they are the definitive "seat taken" answer.
const maxReserveAttempts = 3

// paymentMethods are the accepted values for a reservation request.
var paymentMethods = map[string]bool{
	"MOBILE_MONEY":  true,
	"CREDIT_CARD":   true,
	"BANK_TRANSFER": true,
}

// ReservationStore is the storage surface the allocator needs. It is
// implemented by repository.ReservationStore in production and by
// in-memory fakes in tests.
type ReservationStore interface {
	// Session returns the session header or repository.ErrSessionNotFound.
	Session(ctx context.Context, sessionID uint64) (*model.Session, error)
	// Catalog returns the session's seat catalog.
	Catalog(ctx context.Context, sessionID uint64) ([]model.CatalogSeat, error)
	// BookedSeatLabels returns the labels already in the ledger.
	BookedSeatLabels(ctx context.Context, sessionID uint64) ([]string, error)
	// CreateBookingWithTicket atomically appends the booking and its
	// ticket; it must fail with repository.ErrSeatAlreadyBooked when
	// the (session, seat) pair is already in the ledger, and must
	// leave no partial state behind on any failure.
	CreateBookingWithTicket(ctx context.Context, b *model.Booking) (*model.Ticket, error)
	// RecountAvailability recomputes the denormalized seat count from
	// the ledger.
	RecountAvailability(ctx context.Context, sessionID uint64) error
}

// PublishFunc delivers a booking-confirmed event to the message
// broker. Failures are logged by the allocator and never propagate to
// the caller.
type PublishFunc func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// ReserveInput carries one reservation attempt.
type ReserveInput struct {
	SessionID     uint64
	SeatLabel     string
	UserID        uint64
	PaymentMethod string
	PriceCents    uint32
}

// Reservation is the allocator. It owns precondition checking, the
// bounded retry policy, the post-commit availability recount and the
// confirmation event.
type Reservation struct {
	store   ReservationStore
	publish PublishFunc
}

// NewReservation constructs the allocator. publish may be nil when no
// broker is configured.
func NewReservation(store ReservationStore, publish PublishFunc) *Reservation {
	if store == nil {
		panic("nil store passed to NewReservation")
	}
	return &Reservation{store: store, publish: publish}
}

// Reserve attempts to move a seat from available to reserved.
// Preconditions are checked in order: the session must exist
// (ErrSessionNotFound), the seat must be in the catalog
// (ErrInvalidSeat), and no booking may exist for the pair
// (ErrSeatAlreadyBooked). The check-then-insert race is closed by the
// storage layer's unique constraint, not by the pre-check: whatever
// the pre-check saw, only one concurrent caller can commit.
func (r *Reservation) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, *model.Ticket, error) {
	if err := validateReserve(&in); err != nil {
		return nil, nil, err
	}

	session, err := r.store.Session(ctx, in.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.IsActive {
		return nil, nil, fmt.Errorf("session %d is closed for booking: %w", session.ID, repository.ErrConflict)
	}

	catalog, err := r.store.Catalog(ctx, in.SessionID)
	if err != nil {
		return nil, nil, err
	}
	seat, ok := findSeat(catalog, in.SeatLabel)
	if !ok {
		return nil, nil, fmt.Errorf("seat %q is not in the catalog of session %d: %w", in.SeatLabel, in.SessionID, repository.ErrInvalidSeat)
	}
	if in.PriceCents != seat.PriceCents {
		return nil, nil, fmt.Errorf("price %d does not match catalog price %d for seat %q: %w", in.PriceCents, seat.PriceCents, seat.SeatLabel, repository.ErrValidation)
	}

	booked, err := r.store.BookedSeatLabels(ctx, in.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, repository.ErrStorage)
	}
	if contains(booked, seat.SeatLabel) {
		return nil, nil, repository.ErrSeatAlreadyBooked
	}

	booking, ticket, err := r.allocate(ctx, session, seat, in)
	if err != nil {
		return nil, nil, err
	}

	// Side effects after commit: refresh the derived seat counter and
	// announce the booking. Neither may fail the reservation, which
	// is already durable at this point.
	if err := r.store.RecountAvailability(ctx, session.ID); err != nil {
		log.Printf("reservation: recount availability for session %d failed: %v", session.ID, err)
	}
	if r.publish != nil {
		ev := queue.BookingConfirmedEvent{
			BookingID:     booking.ID,
			TicketNumber:  ticket.TicketNumber,
			UserID:        booking.UserID,
			EventID:       booking.EventID,
			SessionID:     booking.SessionID,
			SeatLabel:     booking.SeatLabel,
			PriceCents:    booking.PriceCents,
			PaymentMethod: booking.PaymentMethod,
			ConfirmedAt:   booking.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := r.publish(ctx, ev); err != nil {
			log.Printf("reservation: publish booking.confirmed for booking %d failed: %v", booking.ID, err)
		}
	}
	return booking, ticket, nil
}

// allocate runs the atomic insert with the bounded retry policy. A
// fresh Booking value is built per attempt so a half-populated record
// from a failed try cannot leak into the next one.
func (r *Reservation) allocate(ctx context.Context, session *model.Session, seat model.CatalogSeat, in ReserveInput) (*model.Booking, *model.Ticket, error) {
	var lastErr error
	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		now := time.Now().UTC()
		booking := &model.Booking{
			UserID:        in.UserID,
			EventID:       session.EventID,
			SessionID:     session.ID,
			SeatLabel:     seat.SeatLabel,
			PriceCents:    seat.PriceCents,
			PaymentMethod: in.PaymentMethod,
			IsPaid:        true,
			PaidAt:        &now,
		}
		ticket, err := r.store.CreateBookingWithTicket(ctx, booking)
		if err == nil {
			return booking, ticket, nil
		}
		if errors.Is(err, repository.ErrSeatAlreadyBooked) {
			return nil, nil, repository.ErrSeatAlreadyBooked
		}
		if !repository.IsTransient(err) {
			return nil, nil, fmt.Errorf("%v: %w", err, repository.ErrStorage)
		}
		lastErr = err
		log.Printf("reservation: transient conflict on session %d seat %s (attempt %d/%d): %v",
			session.ID, seat.SeatLabel, attempt, maxReserveAttempts, err)
		// Re-check the seat's true availability before retrying
		// rather than assuming the previous observation still holds.
		booked, berr := r.store.BookedSeatLabels(ctx, session.ID)
		if berr != nil {
			return nil, nil, fmt.Errorf("%v: %w", berr, repository.ErrStorage)
		}
		if contains(booked, seat.SeatLabel) {
			return nil, nil, repository.ErrSeatAlreadyBooked
		}
	}
	return nil, nil, fmt.Errorf("reservation retries exhausted: %v: %w", lastErr, repository.ErrStorage)
}

func validateReserve(in *ReserveInput) error {
	in.SeatLabel = strings.TrimSpace(in.SeatLabel)
	in.PaymentMethod = strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	switch {
	case in.SessionID == 0:
		return fmt.Errorf("session_id is required: %w", repository.ErrValidation)
	case in.SeatLabel == "":
		return fmt.Errorf("seat_label is required: %w", repository.ErrValidation)
	case in.UserID == 0:
		return fmt.Errorf("user is required: %w", repository.ErrValidation)
	case !paymentMethods[in.PaymentMethod]:
		return fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, repository.ErrValidation)
	}
	return nil
}

func findSeat(catalog []model.CatalogSeat, label string) (model.CatalogSeat, bool) {
	for _, cs := range catalog {
		if cs.SeatLabel == label {
			return cs, true
		}
	}
	return model.CatalogSeat{}, false
}

func contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
