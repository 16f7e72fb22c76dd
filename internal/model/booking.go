package model

import "time"

// Booking is the ledger record of one sold seat.  For any session at
// most one booking may exist per seat label; the database enforces
// this with a unique key on (session_id, seat_label).  Bookings are
// append-only: apart from the payment fields they are never updated
// and never deleted in the normal flow.
//
// Fields:
//  ID            - primary key identifier.
//  UserID        - customer who bought the seat.
//  EventID       - event the session belongs to.
//  SessionID     - session in which the seat was sold.
//  SeatLabel     - catalog seat identifier, e.g. "A1".
//  PriceCents    - price paid in cents.
//  PaymentMethod - one of MOBILE_MONEY, CREDIT_CARD, BANK_TRANSFER.
//  IsPaid        - whether payment has been captured.
//  PaidAt        - when payment was captured, if it was.
//  CreatedAt     - creation timestamp.
type Booking struct {
	ID            uint64     `json:"id"`             // bookings.id
	UserID        uint64     `json:"user_id"`        // bookings.user_id
	EventID       uint64     `json:"event_id"`       // bookings.event_id
	SessionID     uint64     `json:"session_id"`     // bookings.session_id
	SeatLabel     string     `json:"seat_label"`     // bookings.seat_label
	PriceCents    uint32     `json:"price_cents"`    // bookings.price_cents
	PaymentMethod string     `json:"payment_method"` // bookings.payment_method
	IsPaid        bool       `json:"is_paid"`        // bookings.is_paid
	PaidAt        *time.Time `json:"paid_at,omitempty"` // bookings.paid_at (nullable)
	CreatedAt     time.Time  `json:"created_at"`     // bookings.created_at
}
