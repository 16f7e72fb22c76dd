package model

import "time"

// Ticket is the proof-of-booking issued for exactly one booking.  It
// carries a human-readable sequential number and a signed payload
// that gate scanners can verify.  A ticket is created in the same
// database transaction as its booking, so neither record can exist
// without the other.
//
// Fields:
//  ID           - primary key identifier.
//  BookingID    - booking this ticket belongs to (unique).
//  TicketNumber - sequential number like "VU-000042", monotonically
//                 increasing across all tickets.
//  QRPayload    - signed scannable string derived from the booking ID.
//  IsCheckedIn  - whether the ticket has been used at the door.
//  CheckedInAt  - when check-in happened, if it did.
//  CheckedInBy  - staff user who performed the check-in.
//  CreatedAt    - creation timestamp.
type Ticket struct {
	ID           uint64     `json:"id"`             // tickets.id
	BookingID    uint64     `json:"booking_id"`     // tickets.booking_id
	TicketNumber string     `json:"ticket_number"`  // tickets.ticket_number
	QRPayload    string     `json:"qr_payload"`     // tickets.qr_payload
	IsCheckedIn  bool       `json:"is_checked_in"`  // tickets.is_checked_in
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"` // tickets.checked_in_at (nullable)
	CheckedInBy  *uint64    `json:"checked_in_by,omitempty"` // tickets.checked_in_by (nullable)
	CreatedAt    time.Time  `json:"created_at"`     // tickets.created_at
}
