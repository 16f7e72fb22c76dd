package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehub/event-ticketing/internal/repository"
)

func TestAvailabilityAllSeatsFree(t *testing.T) {
	store := newFakeStore()
	view, err := NewAvailability(store).ForSession(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A2", "B1"}, view.Available)
	assert.Len(t, view.SeatMap, 3)
}

func TestAvailabilityExcludesBookedSeats(t *testing.T) {
	store := newFakeStore()
	svc := NewReservation(store, nil)
	view := NewAvailability(store)

	_, _, err := svc.Reserve(context.Background(), validInput())
	require.NoError(t, err)

	got, err := view.ForSession(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "B1"}, got.Available)
	// The seat map always shows the full catalog.
	assert.Len(t, got.SeatMap, 3)
}

// A failed reservation attempt must leave availability untouched.
func TestAvailabilityUnchangedAfterFailedReserve(t *testing.T) {
	store := newFakeStore()
	svc := NewReservation(store, nil)
	view := NewAvailability(store)

	in := validInput()
	in.SeatLabel = "Z9"
	_, _, err := svc.Reserve(context.Background(), in)
	require.ErrorIs(t, err, repository.ErrInvalidSeat)

	got, err := view.ForSession(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1"}, got.Available)
}

func TestAvailabilityUnknownSession(t *testing.T) {
	_, err := NewAvailability(newFakeStore()).ForSession(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

// Reading availability twice with no reservation in between must give
// the same answer; the view has no state of its own.
func TestAvailabilityReadIsIdempotent(t *testing.T) {
	store := newFakeStore()
	view := NewAvailability(store)

	first, err := view.ForSession(context.Background(), 7)
	require.NoError(t, err)
	second, err := view.ForSession(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
