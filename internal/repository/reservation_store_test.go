package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehub/event-ticketing/internal/model"
)

// The store's contract is that booking and ticket commit or roll back
// together. These tests drive the real SQL path against a mocked
// driver and assert on the transaction verbs, which is the only way
// to see a rollback without a live database.

func newMockStore(t *testing.T) (*ReservationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewReservationStore(
		NewSessionRepo(db), NewBookingRepo(db), NewTicketRepo(db), "VU",
		func(bookingID uint64) (string, error) {
			return fmt.Sprintf("%d.nonce.sig", bookingID), nil
		})
	return store, mock
}

func testBooking() *model.Booking {
	now := time.Now().UTC()
	return &model.Booking{
		UserID:        42,
		EventID:       3,
		SessionID:     7,
		SeatLabel:     "A1",
		PriceCents:    5000,
		PaymentMethod: "CREDIT_CARD",
		IsPaid:        true,
		PaidAt:        &now,
	}
}

func TestCreateBookingWithTicketCommitsBoth(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("UPDATE ticket_counters").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT LAST_INSERT_ID").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(7))
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(int64(11), "VU-000007", "11.nonce.sig").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectQuery("SELECT created_at FROM tickets").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	b := testBooking()
	ticket, err := store.CreateBookingWithTicket(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), b.ID)
	assert.Equal(t, uint64(11), ticket.BookingID)
	assert.Equal(t, "VU-000007", ticket.TicketNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingWithTicketDuplicateSeatRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'A1' for key 'uq_session_seat'"})
	mock.ExpectRollback()

	_, err := store.CreateBookingWithTicket(context.Background(), testBooking())
	assert.ErrorIs(t, err, ErrSeatAlreadyBooked)
	assert.NoError(t, mock.ExpectationsWereMet(), "transaction must roll back, never commit")
}

// A fault after the booking insert but before the ticket exists must
// take the booking down with it.
func TestCreateBookingWithTicketCounterFaultRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("UPDATE ticket_counters").WillReturnError(errors.New("counter table gone"))
	mock.ExpectRollback()

	_, err := store.CreateBookingWithTicket(context.Background(), testBooking())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSeatAlreadyBooked)
	assert.NoError(t, mock.ExpectationsWereMet(), "booking insert must be rolled back with the failed ticket")
}

func TestCreateBookingWithTicketInsertFaultRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("UPDATE ticket_counters").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT LAST_INSERT_ID").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(7))
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnError(errors.New("tickets table gone"))
	mock.ExpectRollback()

	_, err := store.CreateBookingWithTicket(context.Background(), testBooking())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The payload closure runs inside the transaction; its failure must
// also abort both records.
func TestCreateBookingWithTicketPayloadFaultRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewReservationStore(
		NewSessionRepo(db), NewBookingRepo(db), NewTicketRepo(db), "VU",
		func(uint64) (string, error) { return "", errors.New("signing key unavailable") })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("UPDATE ticket_counters").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT LAST_INSERT_ID").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(7))
	mock.ExpectRollback()

	_, err = store.CreateBookingWithTicket(context.Background(), testBooking())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
