package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/venuehub/event-ticketing/internal/model"
)

// SessionRepo manages persistence for sessions and their seat
// catalogs. A session's catalog is written once, inside the same
// transaction that creates the session, and is read-only afterwards
// for booking purposes.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *SessionRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new session within the scope of an existing
// transaction and populates the generated ID on the provided model.
// AvailableSeats is initialised to the catalog size by the caller.
// The caller must commit or roll back the transaction.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	const q = `INSERT INTO sessions (event_id, name, time_slot, slot_type, date, max_capacity, available_seats)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		s.EventID, s.Name, s.TimeSlot, s.SlotType,
		s.Date.UTC().Format("2006-01-02"), s.MaxCapacity, s.AvailableSeats,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, event_id, name, time_slot, slot_type, date, max_capacity, available_seats, is_active, created_at, updated_at
	             FROM sessions WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.EventID, &s.Name, &s.TimeSlot, &s.SlotType, &s.Date,
		&s.MaxCapacity, &s.AvailableSeats, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
}

// CreateCatalogBulkTx inserts the session's seat catalog in a single
// statement. Seat labels must be unique within the session; the
// unique key on (session_id, seat_label) rejects duplicates, which
// are surfaced as ErrConflict. Passing an empty slice has no effect
// and returns nil.
func (r *SessionRepo) CreateCatalogBulkTx(ctx context.Context, tx *sql.Tx, sessionID uint64, seats []model.CatalogSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO session_seats (session_id, seat_label, section, row_label, seat_number, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, cs := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, sessionID, cs.SeatLabel, cs.Section, cs.RowLabel, cs.SeatNumber, cs.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetByID returns the session with the given ID or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	const q = `SELECT id, event_id, name, time_slot, slot_type, date, max_capacity, available_seats, is_active, created_at, updated_at
	           FROM sessions WHERE id = ?`
	var s model.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.EventID, &s.Name, &s.TimeSlot, &s.SlotType, &s.Date,
		&s.MaxCapacity, &s.AvailableSeats, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByEventAndDate returns active sessions of an event on the given
// date (YYYY-MM-DD), ordered by time slot. When date is empty, all
// active sessions of the event are returned.
func (r *SessionRepo) ListByEventAndDate(ctx context.Context, eventID uint64, date string) ([]model.Session, error) {
	q := `SELECT id, event_id, name, time_slot, slot_type, date, max_capacity, available_seats, is_active, created_at, updated_at
	      FROM sessions WHERE event_id = ? AND is_active = 1`
	args := []interface{}{eventID}
	if date != "" {
		q += ` AND date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY date ASC, time_slot ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(
			&s.ID, &s.EventID, &s.Name, &s.TimeSlot, &s.SlotType, &s.Date,
			&s.MaxCapacity, &s.AvailableSeats, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Catalog returns the ordered seat catalog of a session. It verifies
// that the session exists first so a missing session surfaces as
// ErrSessionNotFound rather than an empty catalog.
func (r *SessionRepo) Catalog(ctx context.Context, sessionID uint64) ([]model.CatalogSeat, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	const q = `SELECT id, session_id, seat_label, section, row_label, seat_number, price_cents
	           FROM session_seats WHERE session_id = ?
	           ORDER BY section, row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.CatalogSeat, 0)
	for rows.Next() {
		var cs model.CatalogSeat
		if err := rows.Scan(&cs.ID, &cs.SessionID, &cs.SeatLabel, &cs.Section, &cs.RowLabel, &cs.SeatNumber, &cs.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// RecountAvailability recomputes the session's available_seats column
// from the catalog and the booking ledger. The count is always
// derived in full rather than adjusted incrementally so the stored
// value can never drift from the ledger.
func (r *SessionRepo) RecountAvailability(ctx context.Context, sessionID uint64) error {
	const q = `UPDATE sessions
	           SET available_seats =
	               (SELECT COUNT(*) FROM session_seats WHERE session_id = sessions.id) -
	               (SELECT COUNT(*) FROM bookings WHERE session_id = sessions.id)
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is zero both for a missing session and for a
		// no-op update; distinguish by probing for the row.
		if _, gerr := r.GetByID(ctx, sessionID); gerr != nil {
			return gerr
		}
	}
	return nil
}
