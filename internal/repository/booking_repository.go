package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/venuehub/event-ticketing/internal/model"
)

// BookingRepo provides access to the booking ledger. Bookings are
// append-only: rows are inserted exactly once per successful
// reservation and never deleted in the normal flow. The unique key
// uq_session_seat (session_id, seat_label) is the storage-level
// guarantee that a seat is sold at most once per session.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided model. A duplicate-key rejection from uq_session_seat is
// translated to ErrSeatAlreadyBooked; this is the authoritative
// conflict signal, regardless of any earlier availability pre-check.
// The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, event_id, session_id, seat_label, price_cents, payment_method, is_paid, paid_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var paidAt interface{}
	if b.PaidAt != nil {
		paidAt = b.PaidAt.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.EventID, b.SessionID, b.SeatLabel,
		b.PriceCents, b.PaymentMethod, b.IsPaid, paidAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSeatAlreadyBooked
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt)
}

// SeatLabels returns the set of seat labels currently booked for a
// session. The Availability View subtracts this set from the catalog;
// it is always read fresh from the ledger, never cached here.
func (r *BookingRepo) SeatLabels(ctx context.Context, sessionID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT seat_label FROM bookings WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	labels := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// GetByID returns a booking by primary key or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, event_id, session_id, seat_label, price_cents, payment_method, is_paid, paid_at, created_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	var paidAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.SessionID, &b.SeatLabel,
		&b.PriceCents, &b.PaymentMethod, &b.IsPaid, &paidAt, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		b.PaidAt = &t
	}
	return &b, nil
}

// BookingDetail is a booking joined with its event, session and
// ticket for display to customers.
type BookingDetail struct {
	ID            uint64    `json:"id"`
	EventID       uint64    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	Venue         string    `json:"venue"`
	SessionID     uint64    `json:"session_id"`
	SessionName   string    `json:"session_name"`
	TimeSlot      string    `json:"time_slot"`
	Date          string    `json:"date"`
	SeatLabel     string    `json:"seat_label"`
	PriceCents    uint32    `json:"price_cents"`
	PaymentMethod string    `json:"payment_method"`
	IsPaid        bool      `json:"is_paid"`
	TicketNumber  *string   `json:"ticket_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListByUser returns all bookings created by the given user together
// with event, session and ticket details, newest first. When no
// bookings exist, an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.event_id, e.title, e.venue,
	                  b.session_id, s.name, s.time_slot, s.date,
	                  b.seat_label, b.price_cents, b.payment_method, b.is_paid,
	                  t.ticket_number, b.created_at
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           JOIN sessions s ON s.id = b.session_id
	           LEFT JOIN tickets t ON t.booking_id = b.id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var date time.Time
		var ticketNum sql.NullString
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.EventTitle, &d.Venue,
			&d.SessionID, &d.SessionName, &d.TimeSlot, &date,
			&d.SeatLabel, &d.PriceCents, &d.PaymentMethod, &d.IsPaid,
			&ticketNum, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Date = date.UTC().Format("2006-01-02")
		if ticketNum.Valid {
			tn := ticketNum.String
			d.TicketNumber = &tn
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
