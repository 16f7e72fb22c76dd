package service

import (
	"context"

	"github.com/venuehub/event-ticketing/internal/model"
)

// AvailabilityStore is the read surface of the availability view.
type AvailabilityStore interface {
	Session(ctx context.Context, sessionID uint64) (*model.Session, error)
	Catalog(ctx context.Context, sessionID uint64) ([]model.CatalogSeat, error)
	BookedSeatLabels(ctx context.Context, sessionID uint64) ([]string, error)
}

// SeatAvailability is the derived availability of one session:
// the seats of the catalog that are not in the booking ledger, in
// catalog order, plus the full seat map for rendering.
type SeatAvailability struct {
	Available []string            `json:"available_seats"`
	SeatMap   []model.CatalogSeat `json:"seat_map"`
}

// Availability computes the derived availability view. It reads the
// ledger at call time on every invocation; there is no cache at this
// layer, so two calls with no intervening reservation always agree.
// (The HTTP response cache in front of the endpoint is a separate,
// TTL-bounded optimization.)
type Availability struct {
	store AvailabilityStore
}

// NewAvailability constructs the availability view over a store.
func NewAvailability(store AvailabilityStore) *Availability {
	if store == nil {
		panic("nil store passed to NewAvailability")
	}
	return &Availability{store: store}
}

// ForSession returns the availability of a session:
// available = catalog labels minus booked labels. It fails with
// repository.ErrSessionNotFound when the session does not exist.
func (a *Availability) ForSession(ctx context.Context, sessionID uint64) (*SeatAvailability, error) {
	if _, err := a.store.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	catalog, err := a.store.Catalog(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	booked, err := a.store.BookedSeatLabels(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(booked))
	for _, l := range booked {
		taken[l] = struct{}{}
	}
	available := make([]string, 0, len(catalog))
	for _, cs := range catalog {
		if _, ok := taken[cs.SeatLabel]; !ok {
			available = append(available, cs.SeatLabel)
		}
	}
	return &SeatAvailability{Available: available, SeatMap: catalog}, nil
}
