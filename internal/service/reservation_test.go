package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehub/event-ticketing/internal/model"
	"github.com/venuehub/event-ticketing/internal/queue"
	"github.com/venuehub/event-ticketing/internal/repository"
)

// fakeStore is an in-memory ReservationStore. The booked map plays
// the role of the unique key on (session_id, seat_label): the first
// writer wins, every later writer gets ErrSeatAlreadyBooked.
type fakeStore struct {
	mu sync.Mutex

	session *model.Session
	catalog []model.CatalogSeat
	booked  map[string]*model.Booking

	nextBookingID uint64
	nextTicketNo  uint64

	// createErrs is consumed one error per CreateBookingWithTicket
	// call before the insert is attempted. nil entries mean "no
	// injected failure for this attempt".
	createErrs []error

	recounts   int
	recountErr error

	// hideBookedOnce makes the first BookedSeatLabels call report an
	// empty ledger, imitating a pre-check that raced a concurrent
	// writer.
	hideBookedOnce bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		session: &model.Session{
			ID:       7,
			EventID:  3,
			Name:     "Morning block",
			IsActive: true,
		},
		catalog: []model.CatalogSeat{
			{ID: 1, SessionID: 7, SeatLabel: "A1", Section: "VIP", RowLabel: "A", SeatNumber: 1, PriceCents: 5000},
			{ID: 2, SessionID: 7, SeatLabel: "A2", Section: "VIP", RowLabel: "A", SeatNumber: 2, PriceCents: 5000},
			{ID: 3, SessionID: 7, SeatLabel: "B1", Section: "General", RowLabel: "B", SeatNumber: 1, PriceCents: 2500},
		},
		booked: make(map[string]*model.Booking),
	}
}

func (f *fakeStore) Session(_ context.Context, sessionID uint64) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil || f.session.ID != sessionID {
		return nil, repository.ErrSessionNotFound
	}
	cp := *f.session
	return &cp, nil
}

func (f *fakeStore) Catalog(_ context.Context, sessionID uint64) ([]model.CatalogSeat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil || f.session.ID != sessionID {
		return nil, repository.ErrSessionNotFound
	}
	return append([]model.CatalogSeat(nil), f.catalog...), nil
}

func (f *fakeStore) BookedSeatLabels(_ context.Context, _ uint64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideBookedOnce {
		f.hideBookedOnce = false
		return nil, nil
	}
	out := make([]string, 0, len(f.booked))
	for _, cs := range f.catalog {
		if _, ok := f.booked[cs.SeatLabel]; ok {
			out = append(out, cs.SeatLabel)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateBookingWithTicket(_ context.Context, b *model.Booking) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if _, taken := f.booked[b.SeatLabel]; taken {
		return nil, repository.ErrSeatAlreadyBooked
	}
	f.nextBookingID++
	f.nextTicketNo++
	b.ID = f.nextBookingID
	b.CreatedAt = time.Now().UTC()
	cp := *b
	f.booked[b.SeatLabel] = &cp
	return &model.Ticket{
		ID:           f.nextTicketNo,
		BookingID:    b.ID,
		TicketNumber: fmt.Sprintf("VU-%06d", f.nextTicketNo),
		QRPayload:    fmt.Sprintf("%d.nonce.sig", b.ID),
		CreatedAt:    b.CreatedAt,
	}, nil
}

func (f *fakeStore) RecountAvailability(_ context.Context, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recounts++
	return f.recountErr
}

func validInput() ReserveInput {
	return ReserveInput{
		SessionID:     7,
		SeatLabel:     "A1",
		UserID:        42,
		PaymentMethod: "mobile_money",
		PriceCents:    5000,
	}
}

func deadlockErr() error {
	return &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
}

func TestReserveHappyPath(t *testing.T) {
	store := newFakeStore()
	var published []queue.BookingConfirmedEvent
	svc := NewReservation(store, func(_ context.Context, ev queue.BookingConfirmedEvent) error {
		published = append(published, ev)
		return nil
	})

	booking, ticket, err := svc.Reserve(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, booking)
	require.NotNil(t, ticket)

	assert.Equal(t, uint64(42), booking.UserID)
	assert.Equal(t, uint64(3), booking.EventID)
	assert.Equal(t, "A1", booking.SeatLabel)
	assert.Equal(t, uint32(5000), booking.PriceCents)
	assert.Equal(t, "MOBILE_MONEY", booking.PaymentMethod)
	assert.True(t, booking.IsPaid)
	require.NotNil(t, booking.PaidAt)

	assert.Equal(t, booking.ID, ticket.BookingID)
	assert.Equal(t, "VU-000001", ticket.TicketNumber)

	assert.Equal(t, 1, store.recounts)
	require.Len(t, published, 1)
	assert.Equal(t, booking.ID, published[0].BookingID)
	assert.Equal(t, ticket.TicketNumber, published[0].TicketNumber)
}

func TestReserveValidation(t *testing.T) {
	svc := NewReservation(newFakeStore(), nil)

	cases := []struct {
		name   string
		mutate func(*ReserveInput)
	}{
		{"missing session", func(in *ReserveInput) { in.SessionID = 0 }},
		{"missing seat", func(in *ReserveInput) { in.SeatLabel = "  " }},
		{"missing user", func(in *ReserveInput) { in.UserID = 0 }},
		{"unknown payment method", func(in *ReserveInput) { in.PaymentMethod = "CASH" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, _, err := svc.Reserve(context.Background(), in)
			assert.ErrorIs(t, err, repository.ErrValidation)
		})
	}
}

func TestReserveUnknownSession(t *testing.T) {
	svc := NewReservation(newFakeStore(), nil)
	in := validInput()
	in.SessionID = 999

	_, _, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestReserveInactiveSession(t *testing.T) {
	store := newFakeStore()
	store.session.IsActive = false
	svc := NewReservation(store, nil)

	_, _, err := svc.Reserve(context.Background(), validInput())
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestReserveSeatNotInCatalog(t *testing.T) {
	svc := NewReservation(newFakeStore(), nil)
	in := validInput()
	in.SeatLabel = "Z9"

	_, _, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, repository.ErrInvalidSeat)
}

func TestReservePriceMismatch(t *testing.T) {
	svc := NewReservation(newFakeStore(), nil)
	in := validInput()
	in.PriceCents = 100

	_, _, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestReserveSeatAlreadyBooked(t *testing.T) {
	store := newFakeStore()
	svc := NewReservation(store, nil)

	_, _, err := svc.Reserve(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.UserID = 43
	_, _, err = svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, repository.ErrSeatAlreadyBooked)
}

// The pre-check can pass for two concurrent callers; only the storage
// constraint decides. A duplicate-key answer must surface as the
// conflict without any retries.
func TestReserveDuplicateUnderRaceIsNotRetried(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{repository.ErrSeatAlreadyBooked}
	svc := NewReservation(store, nil)

	_, _, err := svc.Reserve(context.Background(), validInput())
	assert.ErrorIs(t, err, repository.ErrSeatAlreadyBooked)
	assert.Empty(t, store.booked, "losing attempt must not write anything")
}

func TestReserveConcurrentFanOut(t *testing.T) {
	store := newFakeStore()
	svc := NewReservation(store, nil)

	const writers = 32
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput()
			in.UserID = uint64(100 + i)
			_, _, errs[i] = svc.Reserve(context.Background(), in)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, repository.ErrSeatAlreadyBooked)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one writer may take the seat")
	assert.Equal(t, writers-1, conflicts)
	assert.Len(t, store.booked, 1)
}

func TestReserveRetriesTransientConflict(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{deadlockErr(), deadlockErr(), nil}
	svc := NewReservation(store, nil)

	booking, ticket, err := svc.Reserve(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotNil(t, booking)
	assert.NotNil(t, ticket)
	assert.Len(t, store.booked, 1)
}

func TestReserveTransientRetriesExhausted(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{deadlockErr(), deadlockErr(), deadlockErr()}
	svc := NewReservation(store, nil)

	_, _, err := svc.Reserve(context.Background(), validInput())
	assert.ErrorIs(t, err, repository.ErrStorage)
	assert.Empty(t, store.booked)
}

// A seat that got taken between transient retries must come back as
// the booking conflict, not as a storage error.
func TestReserveRecheckAfterTransientSeesWinner(t *testing.T) {
	store := newFakeStore()
	store.hideBookedOnce = true
	store.createErrs = []error{deadlockErr()}
	store.booked["A1"] = &model.Booking{ID: 99, SeatLabel: "A1"}
	svc := NewReservation(store, nil)

	_, _, err := svc.Reserve(context.Background(), validInput())
	assert.ErrorIs(t, err, repository.ErrSeatAlreadyBooked)
}

func TestReserveNonTransientStorageError(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{&mysql.MySQLError{Number: 1146, Message: "table missing"}}
	svc := NewReservation(store, nil)

	_, _, err := svc.Reserve(context.Background(), validInput())
	assert.ErrorIs(t, err, repository.ErrStorage)
	assert.NotErrorIs(t, err, repository.ErrSeatAlreadyBooked)
}

// Post-commit side effects must never undo a durable reservation.
func TestReserveSideEffectFailuresAreSwallowed(t *testing.T) {
	store := newFakeStore()
	store.recountErr = fmt.Errorf("recount down")
	svc := NewReservation(store, func(_ context.Context, _ queue.BookingConfirmedEvent) error {
		return fmt.Errorf("broker down")
	})

	booking, ticket, err := svc.Reserve(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotNil(t, booking)
	assert.NotNil(t, ticket)
}

func TestReserveDistinctSeatsBothSucceed(t *testing.T) {
	store := newFakeStore()
	svc := NewReservation(store, nil)

	_, t1, err := svc.Reserve(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.SeatLabel = "A2"
	in.UserID = 43
	_, t2, err := svc.Reserve(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, t1.TicketNumber, t2.TicketNumber)
	assert.Len(t, store.booked, 2)
}
