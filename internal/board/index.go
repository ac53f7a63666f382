package board

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"kitchen-board/internal/domain"
)

type entry struct {
	order domain.Order
	// pending marks a speculative mutation awaiting store confirmation.
	// ReplaceAll must not clobber such entries; the marker is cleared by
	// Commit or Rollback, never by a refresh.
	pending bool
}

// Index holds the last-synchronized order set. It is the single piece of
// mutable shared state in the engine; every read and write is serialized
// by one mutex. Operations are short — no store call ever runs under the
// lock.
type Index struct {
	mu     sync.Mutex
	orders map[string]*entry
}

func NewIndex() *Index {
	return &Index{orders: make(map[string]*entry)}
}

// ReplaceAll swaps in a fresh snapshot from the store. Entries with a
// confirmation in flight keep their speculative state; the in-flight
// operation's commit or rollback resolves them, not the refresh.
func (ix *Index) ReplaceAll(orders []domain.Order) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	next := make(map[string]*entry, len(orders))
	for _, o := range orders {
		next[o.ID] = &entry{order: o}
	}
	for id, e := range ix.orders {
		if e.pending {
			next[id] = e
		}
	}
	ix.orders = next
}

func (ix *Index) Get(id string) (domain.Order, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return e.order, true
}

// Begin snapshots the order, applies the patch and marks the entry as
// awaiting confirmation, all under one lock acquisition. The guard runs
// against the pre-mutation order; a guard error aborts with no change
// visible to readers. A second Begin on an entry still awaiting
// confirmation fails with ErrConflict, which keeps rollback snapshots
// unambiguous.
func (ix *Index) Begin(id string, guard func(domain.Order) error, mutate func(*domain.Order)) (domain.Order, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if e.pending {
		return domain.Order{}, fmt.Errorf("%w: operation already in flight", domain.ErrConflict)
	}
	if guard != nil {
		if err := guard(e.order); err != nil {
			return domain.Order{}, err
		}
	}
	prev := e.order
	mutate(&e.order)
	e.pending = true
	return prev, nil
}

// Commit replaces the speculative entry with the store-confirmed order.
func (ix *Index) Commit(id string, confirmed domain.Order) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.orders[id] = &entry{order: confirmed}
}

// Rollback restores the exact pre-mutation snapshot taken by Begin.
func (ix *Index) Rollback(id string, prev domain.Order) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.orders[id] = &entry{order: prev}
}

// Stale returns orders sitting in Processing since before cutoff. Entries
// with a confirmation in flight are skipped; their state is speculative.
func (ix *Index) Stale(cutoff time.Time) []domain.Order {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var out []domain.Order
	for _, e := range ix.orders {
		if e.pending || e.order.Status != domain.StatusProcessing {
			continue
		}
		if e.order.ClaimedAt != nil && e.order.ClaimedAt.Before(cutoff) {
			out = append(out, e.order)
		}
	}
	return out
}

// Buckets partitions the current set into the four status buckets. A
// non-empty keyword first narrows the set with a case-insensitive
// substring match across display number, first/last name, owner display
// name, status text and formatted preparation time; an order missing a
// field simply does not match on that field.
func (ix *Index) Buckets(keyword string) map[domain.Status][]domain.Order {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(keyword))
	buckets := map[domain.Status][]domain.Order{
		domain.StatusNew:        {},
		domain.StatusProcessing: {},
		domain.StatusReady:      {},
		domain.StatusServed:     {},
	}
	for _, e := range ix.orders {
		if needle != "" && !matches(e.order, needle) {
			continue
		}
		buckets[e.order.Status] = append(buckets[e.order.Status], e.order)
	}
	for st := range buckets {
		sort.Slice(buckets[st], func(i, j int) bool {
			a, b := buckets[st][i], buckets[st][j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.Number < b.Number
		})
	}
	return buckets
}

func matches(o domain.Order, needle string) bool {
	fields := []string{o.Number, o.FirstName, o.LastName, o.OwnerName, string(o.Status)}
	if o.PrepMinutes != nil {
		fields = append(fields, fmt.Sprintf("%d min", *o.PrepMinutes))
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
