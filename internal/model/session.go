package model

import "time"

// Session represents one scheduled occurrence of an event: a
// time-boxed slot on a specific date with its own fixed seat catalog.
// The catalog is written once when the session is created and is
// read-only afterwards for booking purposes.
//
// Fields:
//  ID             - primary key identifier.
//  EventID        - event this session belongs to.
//  Name           - display name of the slot.
//  TimeSlot       - human-readable slot such as "09:00-12:00".
//  SlotType       - part of day (MORNING, AFTERNOON, EVENING).
//  Date           - calendar date of the session.
//  MaxCapacity    - number of seats in the catalog.
//  AvailableSeats - denormalized count of unsold seats.  Recomputed
//                   from the booking ledger after every successful
//                   reservation; display-only, never consulted when
//                   deciding whether a seat can be sold.
//  IsActive       - whether the session is open for booking.
type Session struct {
	ID             uint64    // sessions.id
	EventID        uint64    // sessions.event_id
	Name           string    // sessions.name
	TimeSlot       string    // sessions.time_slot
	SlotType       string    // sessions.slot_type
	Date           time.Time // sessions.date
	MaxCapacity    uint32    // sessions.max_capacity
	AvailableSeats uint32    // sessions.available_seats
	IsActive       bool      // sessions.is_active
	CreatedAt      time.Time // sessions.created_at
	UpdatedAt      time.Time // sessions.updated_at
}

// CatalogSeat is one entry of a session's seat catalog.  Seat labels
// are unique within a session and double as the public seat
// identifier used by the booking API.
//
// Fields:
//  ID         - primary key identifier.
//  SessionID  - session owning this catalog entry.
//  SeatLabel  - public identifier, e.g. "A1".
//  Section    - section of the venue, e.g. "VIP" or "General".
//  RowLabel   - row within the section.
//  SeatNumber - seat number within the row.
//  PriceCents - price of this seat in cents.
type CatalogSeat struct {
	ID         uint64 `json:"id"`          // session_seats.id
	SessionID  uint64 `json:"session_id"`  // session_seats.session_id
	SeatLabel  string `json:"seat_label"`  // session_seats.seat_label
	Section    string `json:"section"`     // session_seats.section
	RowLabel   string `json:"row_label"`   // session_seats.row_label
	SeatNumber uint32 `json:"seat_number"` // session_seats.seat_number
	PriceCents uint32 `json:"price_cents"` // session_seats.price_cents
}
