package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kitchen-board/internal/domain"
	"kitchen-board/internal/store"
)

// Notifier receives store-confirmed status transitions. A publish failure
// is logged and swallowed; the transition is already committed.
type Notifier interface {
	StatusChanged(ctx context.Context, o domain.Order, from domain.Status) error
}

// Coordinator applies the optimistic-then-confirm contract: patch the
// index first so readers see the change immediately, confirm against the
// store with the order's last known version, commit the store's returned
// order on success, restore the exact pre-mutation snapshot on failure.
// The store's version check is the final arbiter — a conflict at
// confirmation time rolls back regardless of what the local guard saw.
// Nothing is retried automatically.
type Coordinator struct {
	idx      *Index
	store    store.Store
	notifier Notifier
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewCoordinator(idx *Index, st store.Store, notifier Notifier, timeout time.Duration, log zerolog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		idx:      idx,
		store:    st,
		notifier: notifier,
		log:      log.With().Str("component", "coordinator").Logger(),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Claim assigns the order to staffID, moving it New -> Processing.
// An order already in Processing is rejected locally with no store call.
func (c *Coordinator) Claim(ctx context.Context, orderID, staffID string) (domain.Order, error) {
	if strings.TrimSpace(staffID) == "" {
		return domain.Order{}, fmt.Errorf("%w: staff id is required", domain.ErrValidation)
	}

	now := c.now()
	prev, err := c.idx.Begin(orderID,
		func(o domain.Order) error {
			if o.Claimed() {
				return domain.ErrAlreadyClaimed
			}
			return nil
		},
		func(o *domain.Order) {
			o.Status = domain.StatusProcessing
			o.OwnerID = staffID
			o.OwnerName = staffID // store confirm substitutes the resolved display name
			o.ClaimedAt = &now
		})
	if err != nil {
		return domain.Order{}, err
	}

	confirmed, err := c.confirm(ctx, func(cctx context.Context) (domain.Order, error) {
		return c.store.RequestClaim(cctx, orderID, staffID, prev.Version)
	})
	if err != nil {
		c.idx.Rollback(orderID, prev)
		c.log.Debug().Str("order_id", orderID).Str("staff_id", staffID).Err(err).Msg("claim rejected, rolled back")
		return domain.Order{}, err
	}

	c.idx.Commit(orderID, confirmed)
	c.log.Info().Str("order_id", orderID).Str("staff_id", staffID).Int64("version", confirmed.Version).Msg("order claimed")
	c.notify(ctx, confirmed, prev.Status)
	return confirmed, nil
}

// Unclaim releases a claimed order back to New. If the store rejects the
// release, the index rolls back to the claimed snapshot that was in place
// immediately before the attempt.
func (c *Coordinator) Unclaim(ctx context.Context, orderID string) (domain.Order, error) {
	prev, err := c.idx.Begin(orderID,
		func(o domain.Order) error {
			if !o.Claimed() {
				return domain.ErrNotClaimed
			}
			return nil
		},
		func(o *domain.Order) {
			o.Status = domain.StatusNew
			o.OwnerID = ""
			o.OwnerName = ""
			o.ClaimedAt = nil
		})
	if err != nil {
		return domain.Order{}, err
	}

	confirmed, err := c.confirm(ctx, func(cctx context.Context) (domain.Order, error) {
		return c.store.RequestUnclaim(cctx, orderID, prev.Version)
	})
	if err != nil {
		c.idx.Rollback(orderID, prev)
		c.log.Debug().Str("order_id", orderID).Err(err).Msg("unclaim rejected, rolled back")
		return domain.Order{}, err
	}

	c.idx.Commit(orderID, confirmed)
	c.log.Info().Str("order_id", orderID).Int64("version", confirmed.Version).Msg("order released")
	c.notify(ctx, confirmed, prev.Status)
	return confirmed, nil
}

// SetStatus is the administrative override used by manual workflow
// advances (Ready -> Served and the like) and by auto-escalation. Always
// permitted, but it still runs the optimistic/confirm/rollback path.
func (c *Coordinator) SetStatus(ctx context.Context, orderID string, st domain.Status) (domain.Order, error) {
	if !st.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, st)
	}

	prev, err := c.idx.Begin(orderID,
		func(o domain.Order) error {
			if st == domain.StatusProcessing && o.OwnerID == "" {
				return fmt.Errorf("%w: cannot enter Processing without an owner", domain.ErrValidation)
			}
			return nil
		},
		func(o *domain.Order) {
			o.Status = st
			if st != domain.StatusProcessing {
				o.OwnerID = ""
				o.OwnerName = ""
				o.ClaimedAt = nil
			}
		})
	if err != nil {
		return domain.Order{}, err
	}

	confirmed, err := c.confirm(ctx, func(cctx context.Context) (domain.Order, error) {
		return c.store.RequestSetStatus(cctx, orderID, st, prev.Version)
	})
	if err != nil {
		c.idx.Rollback(orderID, prev)
		c.log.Debug().Str("order_id", orderID).Str("status", string(st)).Err(err).Msg("status change rejected, rolled back")
		return domain.Order{}, err
	}

	c.idx.Commit(orderID, confirmed)
	c.log.Info().Str("order_id", orderID).Str("from", string(prev.Status)).Str("to", string(st)).Int64("version", confirmed.Version).Msg("status changed")
	c.notify(ctx, confirmed, prev.Status)
	return confirmed, nil
}

// confirm runs a store call under the confirmation timeout. The call is
// detached from the caller's cancellation: an abandoned request must
// still resolve to a commit or rollback to keep the index consistent.
// A timeout is a store failure like any other.
func (c *Coordinator) confirm(ctx context.Context, call func(context.Context) (domain.Order, error)) (domain.Order, error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	o, err := call(cctx)
	if err == nil {
		return o, nil
	}
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return domain.Order{}, err
	}
	return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (c *Coordinator) notify(ctx context.Context, o domain.Order, from domain.Status) {
	if c.notifier == nil || from == o.Status {
		return
	}
	if err := c.notifier.StatusChanged(ctx, o, from); err != nil {
		c.log.Error().Str("order_id", o.ID).Err(err).Msg("status notification failed")
	}
}
