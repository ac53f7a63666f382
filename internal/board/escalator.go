package board

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"kitchen-board/internal/domain"
)

// Escalator promotes orders stuck in Processing. Any order whose
// ClaimedAt is older than the idle threshold is advanced to Ready through
// the coordinator, so the transition gets the same confirm/rollback
// treatment as a manual one. An order that changed status between the
// scan and the call is rejected by the version check; that is a no-op,
// not an error.
type Escalator struct {
	idx       *Index
	coord     *Coordinator
	threshold time.Duration
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewEscalator(idx *Index, coord *Coordinator, threshold, interval time.Duration, log zerolog.Logger) *Escalator {
	if threshold <= 0 {
		threshold = 60 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Escalator{
		idx:       idx,
		coord:     coord,
		threshold: threshold,
		interval:  interval,
		now:       time.Now,
		log:       log.With().Str("component", "escalator").Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (e *Escalator) Start() {
	go e.run()
}

func (e *Escalator) Stop() {
	close(e.stop)
	<-e.done
}

func (e *Escalator) run() {
	defer close(e.done)
	t := time.NewTicker(e.interval)
	defer t.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-t.C:
			e.Scan(context.Background())
		}
	}
}

// Scan performs one escalation pass. Exposed so tests can drive time
// explicitly instead of sleeping through ticker intervals.
func (e *Escalator) Scan(ctx context.Context) {
	cutoff := e.now().Add(-e.threshold)
	for _, o := range e.idx.Stale(cutoff) {
		_, err := e.coord.SetStatus(ctx, o.ID, domain.StatusReady)
		switch {
		case err == nil:
			e.log.Info().Str("order_id", o.ID).Str("owner_id", o.OwnerID).Msg("idle order escalated to Ready")
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
			// order moved on between the scan and the call
			e.log.Debug().Str("order_id", o.ID).Err(err).Msg("stale escalation skipped")
		default:
			e.log.Error().Str("order_id", o.ID).Err(err).Msg("escalation failed")
		}
	}
}
