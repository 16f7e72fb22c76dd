package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/venuehub/event-ticketing/internal/model"
)

// TicketRepo provides access to tickets and the ticket number
// sequence. Ticket numbers are drawn from the single-row
// ticket_counters table; the UPDATE bumping the counter takes a row
// lock, so concurrent issuers are serialized and every ticket gets a
// distinct, monotonically increasing number.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// NextNumberTx reserves the next value of the ticket number sequence
// within the provided transaction and returns it formatted as
// "<prefix>-NNNNNN". LAST_INSERT_ID(expr) makes the post-increment
// value readable on this connection without a race against other
// sessions. The value is only consumed if the transaction commits.
func (r *TicketRepo) NextNumberTx(ctx context.Context, tx *sql.Tx, prefix string) (string, error) {
	if _, err := tx.ExecContext(ctx,
		`UPDATE ticket_counters SET value = LAST_INSERT_ID(value + 1) WHERE name = 'ticket_number'`); err != nil {
		return "", err
	}
	var n uint64
	if err := tx.QueryRowContext(ctx, `SELECT LAST_INSERT_ID()`).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

// CreateTx inserts a ticket within the provided transaction and
// populates the generated ID and created_at on the model. The unique
// key on booking_id guarantees one ticket per booking; a duplicate is
// surfaced as ErrConflict. The caller must commit or roll back.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (booking_id, ticket_number, qr_payload) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.BookingID, t.TicketNumber, t.QRPayload)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM tickets WHERE id = ?`, t.ID).Scan(&t.CreatedAt)
}

// GetByNumber returns the ticket with the given human-readable number
// or ErrTicketNotFound.
func (r *TicketRepo) GetByNumber(ctx context.Context, number string) (*model.Ticket, error) {
	const q = `SELECT id, booking_id, ticket_number, qr_payload, is_checked_in, checked_in_at, checked_in_by, created_at
	           FROM tickets WHERE ticket_number = ?`
	return r.scanTicket(r.db.QueryRowContext(ctx, q, number))
}

// GetByBooking returns the ticket issued for a booking or
// ErrTicketNotFound.
func (r *TicketRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.Ticket, error) {
	const q = `SELECT id, booking_id, ticket_number, qr_payload, is_checked_in, checked_in_at, checked_in_by, created_at
	           FROM tickets WHERE booking_id = ?`
	return r.scanTicket(r.db.QueryRowContext(ctx, q, bookingID))
}

// CheckIn marks the ticket as used and stamps who scanned it. The
// guarded UPDATE makes repeat check-ins fail with ErrConflict instead
// of silently overwriting the first scan.
func (r *TicketRepo) CheckIn(ctx context.Context, number string, staffID uint64) (*model.Ticket, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET is_checked_in = 1, checked_in_at = UTC_TIMESTAMP(), checked_in_by = ?
		 WHERE ticket_number = ? AND is_checked_in = 0`,
		staffID, number)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either the ticket does not exist or it was already
		// checked in; probe to tell the two apart.
		t, gerr := r.GetByNumber(ctx, number)
		if gerr != nil {
			return nil, gerr
		}
		if t.IsCheckedIn {
			return nil, ErrConflict
		}
		return nil, ErrTicketNotFound
	}
	return r.GetByNumber(ctx, number)
}

func (r *TicketRepo) scanTicket(row *sql.Row) (*model.Ticket, error) {
	var t model.Ticket
	var checkedAt sql.NullTime
	var checkedBy sql.NullInt64
	err := row.Scan(
		&t.ID, &t.BookingID, &t.TicketNumber, &t.QRPayload,
		&t.IsCheckedIn, &checkedAt, &checkedBy, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if checkedAt.Valid {
		v := checkedAt.Time
		t.CheckedInAt = &v
	}
	if checkedBy.Valid {
		v := uint64(checkedBy.Int64)
		t.CheckedInBy = &v
	}
	return &t, nil
}
