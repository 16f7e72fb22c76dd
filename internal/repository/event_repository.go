package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/venuehub/event-ticketing/internal/model"
)

// EventRepo manages persistence for events. Events are created by
// organizers and browsed publicly; only active events are visible to
// guests. All timestamp fields are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts a new event and populates the generated ID and
// DB-default fields on the provided model.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (title, description, event_type, start_date, end_date, venue, max_capacity, organizer_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.EventType,
		e.StartDate.UTC().Format("2006-01-02"), e.EndDate.UTC().Format("2006-01-02"),
		e.Venue, e.MaxCapacity, e.OrganizerID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	// Query back the full row to populate defaults and timestamps.
	return r.scanOne(ctx, e.ID, e)
}

// GetByID returns the event with the given ID or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	if err := r.scanOne(ctx, id, &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListActive returns all events whose is_active flag is set, ordered
// by start date ascending. Guests use this to browse upcoming events.
func (r *EventRepo) ListActive(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, title, description, event_type, start_date, end_date, venue, max_capacity, organizer_id, is_active, created_at, updated_at
	           FROM events WHERE is_active = 1 ORDER BY start_date ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		var desc sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Title, &desc, &e.EventType, &e.StartDate, &e.EndDate,
			&e.Venue, &e.MaxCapacity, &e.OrganizerID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			e.Description = &d
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate clears the is_active flag so the event no longer shows
// up in public listings. Existing bookings are untouched.
func (r *EventRepo) Deactivate(ctx context.Context, id, organizerID uint64, admin bool) error {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !admin && e.OrganizerID != organizerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `UPDATE events SET is_active = 0 WHERE id = ?`, id)
	return err
}

func (r *EventRepo) scanOne(ctx context.Context, id uint64, e *model.Event) error {
	const sel = `SELECT id, title, description, event_type, start_date, end_date, venue, max_capacity, organizer_id, is_active, created_at, updated_at
	             FROM events WHERE id = ?`
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, sel, id).Scan(
		&e.ID, &e.Title, &desc, &e.EventType, &e.StartDate, &e.EndDate,
		&e.Venue, &e.MaxCapacity, &e.OrganizerID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if desc.Valid {
		d := desc.String
		e.Description = &d
	}
	return nil
}
