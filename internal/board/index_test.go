package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kitchen-board/internal/domain"
)

func newOrder(id, number string, st domain.Status) domain.Order {
	return domain.Order{
		ID:        id,
		Number:    number,
		Status:    st,
		CreatedAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Version:   1,
	}
}

func TestBucketsPartitionsByStatus(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{
		newOrder("o1", "101", domain.StatusNew),
		newOrder("o2", "102", domain.StatusProcessing),
		newOrder("o3", "103", domain.StatusReady),
		newOrder("o4", "104", domain.StatusServed),
		newOrder("o5", "105", domain.StatusNew),
	})

	b := ix.Buckets("")
	require.Len(t, b[domain.StatusNew], 2)
	require.Len(t, b[domain.StatusProcessing], 1)
	require.Len(t, b[domain.StatusReady], 1)
	require.Len(t, b[domain.StatusServed], 1)
	require.Equal(t, "101", b[domain.StatusNew][0].Number)
	require.Equal(t, "105", b[domain.StatusNew][1].Number)
}

func TestBucketsFilterMatchesStatusTextAndName(t *testing.T) {
	t.Parallel()

	lee := newOrder("o1", "101", domain.StatusNew)
	lee.FirstName = "Ready"
	lee.LastName = "Lee"
	ann := newOrder("o2", "102", domain.StatusReady)
	ann.FirstName = "Ann"

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{lee, ann, newOrder("o3", "103", domain.StatusNew)})

	b := ix.Buckets("ready")
	require.Len(t, b[domain.StatusNew], 1, "name match stays in its own bucket")
	require.Equal(t, "o1", b[domain.StatusNew][0].ID)
	require.Len(t, b[domain.StatusReady], 1, "status text match")
	require.Equal(t, "o2", b[domain.StatusReady][0].ID)
	require.Empty(t, b[domain.StatusProcessing])
	require.Empty(t, b[domain.StatusServed])
}

func TestBucketsFilterMatchesOwnerAndPrepTime(t *testing.T) {
	t.Parallel()

	claimed := newOrder("o1", "101", domain.StatusProcessing)
	claimed.OwnerID = "staff-7"
	claimed.OwnerName = "Dana Reyes"
	now := time.Now()
	claimed.ClaimedAt = &now

	prep := newOrder("o2", "102", domain.StatusNew)
	fifteen := 15
	prep.PrepMinutes = &fifteen

	// o3 has every optional field unset; it must not match, and must not crash
	bare := newOrder("o3", "103", domain.StatusServed)

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{claimed, prep, bare})

	b := ix.Buckets("dana")
	require.Len(t, b[domain.StatusProcessing], 1)
	require.Empty(t, b[domain.StatusNew])

	b = ix.Buckets("15 min")
	require.Len(t, b[domain.StatusNew], 1)
	require.Equal(t, "o2", b[domain.StatusNew][0].ID)

	b = ix.Buckets("no such keyword")
	for _, st := range []domain.Status{domain.StatusNew, domain.StatusProcessing, domain.StatusReady, domain.StatusServed} {
		require.Empty(t, b[st])
	}
}

func TestBucketsFilterIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	o := newOrder("o1", "B-204", domain.StatusNew)
	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{o})

	require.Len(t, ix.Buckets("b-204")[domain.StatusNew], 1)
	require.Len(t, ix.Buckets("B-204")[domain.StatusNew], 1)
}

func TestBeginGuardAbortsWithoutVisibleChange(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{newOrder("o1", "101", domain.StatusNew)})

	_, err := ix.Begin("o1",
		func(o domain.Order) error { return domain.ErrAlreadyClaimed },
		func(o *domain.Order) { o.Status = domain.StatusProcessing })
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	got, ok := ix.Get("o1")
	require.True(t, ok)
	require.Equal(t, domain.StatusNew, got.Status)

	// a guard abort leaves no pending marker behind
	_, err = ix.Begin("o1", nil, func(o *domain.Order) { o.Status = domain.StatusReady })
	require.NoError(t, err)
}

func TestBeginRejectsSecondInFlightOperation(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{newOrder("o1", "101", domain.StatusNew)})

	prev, err := ix.Begin("o1", nil, func(o *domain.Order) { o.Status = domain.StatusProcessing })
	require.NoError(t, err)

	_, err = ix.Begin("o1", nil, func(o *domain.Order) { o.Status = domain.StatusReady })
	require.ErrorIs(t, err, domain.ErrConflict)

	ix.Rollback("o1", prev)
	_, err = ix.Begin("o1", nil, func(o *domain.Order) { o.Status = domain.StatusReady })
	require.NoError(t, err)
}

func TestReplaceAllPreservesPendingEntries(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{
		newOrder("o1", "101", domain.StatusNew),
		newOrder("o2", "102", domain.StatusNew),
	})

	_, err := ix.Begin("o1", nil, func(o *domain.Order) {
		o.Status = domain.StatusProcessing
		o.OwnerID = "staff-7"
	})
	require.NoError(t, err)

	// a stale refresh arrives mid-confirmation
	stale := newOrder("o1", "101", domain.StatusNew)
	gone := newOrder("o2", "102", domain.StatusReady)
	ix.ReplaceAll([]domain.Order{stale, gone})

	got, ok := ix.Get("o1")
	require.True(t, ok)
	require.Equal(t, domain.StatusProcessing, got.Status, "speculative state survives refresh")
	require.Equal(t, "staff-7", got.OwnerID)

	got, ok = ix.Get("o2")
	require.True(t, ok)
	require.Equal(t, domain.StatusReady, got.Status, "non-pending entries take the fresh snapshot")

	// resolution wins over the stale refresh
	confirmed := newOrder("o1", "101", domain.StatusProcessing)
	confirmed.OwnerID = "staff-7"
	confirmed.Version = 2
	ix.Commit("o1", confirmed)

	got, _ = ix.Get("o1")
	require.EqualValues(t, 2, got.Version)
}

func TestReplaceAllDropsRemovedOrders(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{newOrder("o1", "101", domain.StatusServed)})
	ix.ReplaceAll(nil)

	_, ok := ix.Get("o1")
	require.False(t, ok)
}

func TestStaleSkipsPendingAndNonProcessing(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	old := base.Add(-2 * time.Hour)
	fresh := base.Add(-10 * time.Minute)

	idle := newOrder("o1", "101", domain.StatusProcessing)
	idle.OwnerID = "staff-7"
	idle.ClaimedAt = &old
	active := newOrder("o2", "102", domain.StatusProcessing)
	active.OwnerID = "staff-9"
	active.ClaimedAt = &fresh
	ready := newOrder("o3", "103", domain.StatusReady)

	ix := NewIndex()
	ix.ReplaceAll([]domain.Order{idle, active, ready})

	stale := ix.Stale(base.Add(-time.Hour))
	require.Len(t, stale, 1)
	require.Equal(t, "o1", stale[0].ID)

	// an in-flight entry is speculative and never scanned
	_, err := ix.Begin("o1", nil, func(o *domain.Order) {})
	require.NoError(t, err)
	require.Empty(t, ix.Stale(base.Add(-time.Hour)))
}
