package board

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"kitchen-board/internal/domain"
	"kitchen-board/internal/store"
)

// Options wires a Board. Store is required; Notifier may be nil to
// disable status-change publishing. Zero durations fall back to defaults
// (refresh 30s, escalation scan 1m, idle threshold 60m, store timeout 5s).
type Options struct {
	Store           store.Store
	Notifier        Notifier
	RefreshInterval time.Duration
	ScanInterval    time.Duration
	IdleThreshold   time.Duration
	StoreTimeout    time.Duration
	Logger          zerolog.Logger
}

// Board is the façade over the engine: claim coordination, auto
// escalation and periodic refresh behind one surface. It only delegates;
// the business rules live in the coordinator and the index.
type Board struct {
	idx     *Index
	coord   *Coordinator
	refresh *RefreshLoop
	esc     *Escalator
	log     zerolog.Logger
}

func New(opts Options) *Board {
	idx := NewIndex()
	coord := NewCoordinator(idx, opts.Store, opts.Notifier, opts.StoreTimeout, opts.Logger)
	return &Board{
		idx:     idx,
		coord:   coord,
		refresh: NewRefreshLoop(idx, opts.Store, opts.RefreshInterval, opts.StoreTimeout, opts.Logger),
		esc:     NewEscalator(idx, coord, opts.IdleThreshold, opts.ScanInterval, opts.Logger),
		log:     opts.Logger.With().Str("component", "board").Logger(),
	}
}

// Start loads the initial snapshot and starts the refresh and escalation
// timers. A store outage at startup is not fatal: the board comes up
// empty and the refresh loop fills it when the store recovers.
func (b *Board) Start(ctx context.Context) {
	if err := b.refresh.Sync(ctx); err != nil {
		b.log.Error().Err(err).Msg("initial sync failed, starting with empty board")
	}
	b.refresh.Start()
	b.esc.Start()
	b.log.Info().Msg("board started")
}

func (b *Board) Stop() {
	b.esc.Stop()
	b.refresh.Stop()
	b.log.Info().Msg("board stopped")
}

func (b *Board) Claim(ctx context.Context, orderID, staffID string) (domain.Order, error) {
	return b.coord.Claim(ctx, orderID, staffID)
}

func (b *Board) Unclaim(ctx context.Context, orderID string) (domain.Order, error) {
	return b.coord.Unclaim(ctx, orderID)
}

func (b *Board) SetStatus(ctx context.Context, orderID string, st domain.Status) (domain.Order, error) {
	return b.coord.SetStatus(ctx, orderID, st)
}

// View returns the four status buckets, optionally narrowed by keyword.
func (b *Board) View(keyword string) map[domain.Status][]domain.Order {
	return b.idx.Buckets(keyword)
}

func (b *Board) Get(orderID string) (domain.Order, bool) {
	return b.idx.Get(orderID)
}
