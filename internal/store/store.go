package store

import (
	"context"

	"kitchen-board/internal/domain"
)

// Store is the authoritative order store the board synchronizes against.
// Mutation requests carry the caller's last known version; the store
// accepts the mutation only if the version still matches and returns the
// updated order (which may carry richer fields than the board held, e.g.
// the resolved owner display name).
//
// Expected rejections map to domain sentinels: a version mismatch or a
// guard failure (claiming a non-New order) is domain.ErrConflict, a
// missing row is domain.ErrNotFound. Anything else is a transport error.
// The store never retries on behalf of the caller.
type Store interface {
	FetchOrders(ctx context.Context) ([]domain.Order, error)
	RequestClaim(ctx context.Context, orderID, staffID string, expectedVersion int64) (domain.Order, error)
	RequestUnclaim(ctx context.Context, orderID string, expectedVersion int64) (domain.Order, error)
	RequestSetStatus(ctx context.Context, orderID string, status domain.Status, expectedVersion int64) (domain.Order, error)
}
