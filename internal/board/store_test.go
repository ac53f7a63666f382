package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kitchen-board/internal/domain"
)

// memStore is an in-memory versioned store with the same arbitration
// rules as the Postgres implementation: a mutation is accepted only if
// the expected version matches and the status guard holds, and every
// accepted mutation bumps the version.
type memStore struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	staff  map[string]string
}

func newMemStore(orders ...domain.Order) *memStore {
	m := &memStore{
		orders: make(map[string]domain.Order, len(orders)),
		staff:  map[string]string{"staff-7": "Dana Reyes", "staff-9": "Lee Park"},
	}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memStore) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) RequestClaim(ctx context.Context, orderID, staffID string, expectedVersion int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if o.Version != expectedVersion || o.Status != domain.StatusNew {
		return domain.Order{}, fmt.Errorf("%w: order %s changed concurrently", domain.ErrConflict, orderID)
	}
	now := time.Now().UTC()
	o.Status = domain.StatusProcessing
	o.OwnerID = staffID
	o.OwnerName = staffID
	if name, ok := m.staff[staffID]; ok {
		o.OwnerName = name
	}
	o.ClaimedAt = &now
	o.Version++
	m.orders[orderID] = o
	return o, nil
}

func (m *memStore) RequestUnclaim(ctx context.Context, orderID string, expectedVersion int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if o.Version != expectedVersion || o.Status != domain.StatusProcessing {
		return domain.Order{}, fmt.Errorf("%w: order %s changed concurrently", domain.ErrConflict, orderID)
	}
	o.Status = domain.StatusNew
	o.OwnerID = ""
	o.OwnerName = ""
	o.ClaimedAt = nil
	o.Version++
	m.orders[orderID] = o
	return o, nil
}

func (m *memStore) RequestSetStatus(ctx context.Context, orderID string, status domain.Status, expectedVersion int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if o.Version != expectedVersion {
		return domain.Order{}, fmt.Errorf("%w: order %s changed concurrently", domain.ErrConflict, orderID)
	}
	o.Status = status
	if status != domain.StatusProcessing {
		o.OwnerID = ""
		o.OwnerName = ""
		o.ClaimedAt = nil
	}
	o.Version++
	m.orders[orderID] = o
	return o, nil
}

// get returns the store-side copy for assertions.
func (m *memStore) get(orderID string) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID]
}

// fnStore injects failures per call; nil funcs fail loudly.
type fnStore struct {
	fetchFn   func(context.Context) ([]domain.Order, error)
	claimFn   func(context.Context, string, string, int64) (domain.Order, error)
	unclaimFn func(context.Context, string, int64) (domain.Order, error)
	setFn     func(context.Context, string, domain.Status, int64) (domain.Order, error)
}

var errUnexpectedCall = errors.New("unexpected store call")

func (f *fnStore) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	if f.fetchFn == nil {
		return nil, errUnexpectedCall
	}
	return f.fetchFn(ctx)
}

func (f *fnStore) RequestClaim(ctx context.Context, orderID, staffID string, v int64) (domain.Order, error) {
	if f.claimFn == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return f.claimFn(ctx, orderID, staffID, v)
}

func (f *fnStore) RequestUnclaim(ctx context.Context, orderID string, v int64) (domain.Order, error) {
	if f.unclaimFn == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return f.unclaimFn(ctx, orderID, v)
}

func (f *fnStore) RequestSetStatus(ctx context.Context, orderID string, st domain.Status, v int64) (domain.Order, error) {
	if f.setFn == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return f.setFn(ctx, orderID, st, v)
}
