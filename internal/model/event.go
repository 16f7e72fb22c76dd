package model

import "time"

// Event represents a scheduled happening (exhibition, workshop or
// keynote) that customers can book tickets for.  An event spans a
// date range at a venue and owns one or more sessions, each with its
// own seat catalog.
//
// Fields:
//  ID          - primary key identifier.
//  Title       - display name of the event.
//  Description - optional free-form description.
//  EventType   - kind of event (EXHIBITION, WORKSHOP, KEYNOTE).
//  StartDate   - first day of the event.
//  EndDate     - last day of the event.
//  Venue       - human-readable venue name.
//  MaxCapacity - total capacity across all sessions.
//  OrganizerID - user who created and manages the event.
//  IsActive    - whether the event is visible for booking.
//  CreatedAt   - creation timestamp.
//  UpdatedAt   - last update timestamp.
type Event struct {
	ID          uint64    // events.id
	Title       string    // events.title
	Description *string   // events.description (nullable)
	EventType   string    // events.event_type
	StartDate   time.Time // events.start_date
	EndDate     time.Time // events.end_date
	Venue       string    // events.venue
	MaxCapacity uint32    // events.max_capacity
	OrganizerID uint64    // events.organizer_id
	IsActive    bool      // events.is_active
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}
