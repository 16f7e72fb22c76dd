// Package queue defines message payloads exchanged over the message
// broker plus the publisher and consumer for them.
package queue

// BookingConfirmedEvent is published after a reservation has been
// committed together with its ticket. It carries enough information
// for downstream consumers to log, notify or feed analytics without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	TicketNumber  string `json:"ticket_number"`
	UserID        uint64 `json:"user_id"`
	EventID       uint64 `json:"event_id"`
	SessionID     uint64 `json:"session_id"`
	SeatLabel     string `json:"seat_label"`
	PriceCents    uint32 `json:"price_cents"`
	PaymentMethod string `json:"payment_method"`
	ConfirmedAt   string `json:"confirmed_at"`
}
