package board

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"kitchen-board/internal/store"
)

// RefreshLoop periodically pulls the full order set from the store into
// the index. A failed fetch is logged and skipped; the previous snapshot
// stays in place and the loop keeps running.
type RefreshLoop struct {
	idx      *Index
	store    store.Store
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewRefreshLoop(idx *Index, st store.Store, interval, timeout time.Duration, log zerolog.Logger) *RefreshLoop {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RefreshLoop{
		idx:      idx,
		store:    st,
		interval: interval,
		timeout:  timeout,
		log:      log.With().Str("component", "refresh").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *RefreshLoop) Start() {
	go r.run()
}

func (r *RefreshLoop) Stop() {
	close(r.stop)
	<-r.done
}

func (r *RefreshLoop) run() {
	defer close(r.done)
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			if err := r.Sync(context.Background()); err != nil {
				r.log.Error().Err(err).Msg("refresh failed, keeping previous snapshot")
			}
		}
	}
}

// Sync fetches one full snapshot and swaps it into the index.
func (r *RefreshLoop) Sync(ctx context.Context) error {
	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	orders, err := r.store.FetchOrders(fctx)
	if err != nil {
		return err
	}
	r.idx.ReplaceAll(orders)
	r.log.Debug().Int("orders", len(orders)).Msg("index refreshed")
	return nil
}
