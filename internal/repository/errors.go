// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without inspecting driver-specific errors. For example,
// ErrSeatAlreadyBooked signals that the (session, seat) uniqueness
// constraint rejected an insert, while ErrStorage wraps transient
// database failures that exhausted their retry budget.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEventNotFound indicates that an event was not located in the DB.
var ErrEventNotFound = errors.New("event not found")

// ErrSessionNotFound indicates that a session was not located in the DB.
var ErrSessionNotFound = errors.New("session not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrTicketNotFound indicates that a ticket was not located in the DB.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrInvalidSeat is returned when a seat label is not part of the
// session's catalog. Handlers should translate this into HTTP 400.
var ErrInvalidSeat = errors.New("invalid seat")

// ErrSeatAlreadyBooked is returned when a booking already exists for
// the (session, seat) pair, whether detected by a pre-check or by the
// storage-level unique key. Handlers should translate this into 409.
var ErrSeatAlreadyBooked = errors.New("seat already booked")

// ErrValidation is returned when a reservation request is missing
// required fields. Handlers should translate this into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrStorage wraps database failures that are neither a uniqueness
// conflict nor recoverable by further retries. Handlers should
// translate this into HTTP 500.
var ErrStorage = errors.New("storage error")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as checking in a ticket twice. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering a user with an email
// address that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound indicates that a user was not located in the DB.
var ErrUserNotFound = errors.New("user not found")

// MySQL server error numbers relevant to the reservation path.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
	mysqlErrRowIsReferenced = 1451
)

// isDuplicateKey reports whether err is a MySQL duplicate-entry error,
// i.e. a unique constraint rejected the insert.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}

// isRowReferenced reports whether err is a MySQL foreign-key
// rejection of a DELETE, i.e. child rows still point at the row.
func isRowReferenced(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrRowIsReferenced
}

// IsTransient reports whether err is a MySQL failure that is safe to
// retry: a deadlock victim or a lock wait timeout. Callers must
// re-check preconditions before retrying rather than assume state.
func IsTransient(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrDeadlock || me.Number == mysqlErrLockWaitTimeout
}
