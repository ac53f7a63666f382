package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kitchen-board/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS staff (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id           TEXT PRIMARY KEY,
	order_number TEXT NOT NULL,
	first_name   TEXT NOT NULL DEFAULT '',
	last_name    TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'New',
	owner_id     TEXT REFERENCES staff(id),
	claimed_at   TIMESTAMPTZ,
	prep_minutes INT,
	total        NUMERIC(10,2) NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	version      BIGINT NOT NULL DEFAULT 1
);
`

const orderColumns = `
	o.id, o.order_number, o.first_name, o.last_name, o.status,
	COALESCE(o.owner_id, ''), COALESCE(s.display_name, o.owner_id, ''),
	o.claimed_at, o.prep_minutes, o.total, o.created_at, o.version`

// Postgres implements Store on a pgx pool. Every mutation is a single
// conditional UPDATE guarded by the expected version; the database is the
// final arbiter of concurrent claims.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Init creates the schema if it does not exist yet.
func (p *Postgres) Init(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (p *Postgres) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
SELECT`+orderColumns+`
FROM orders o
LEFT JOIN staff s ON s.id = o.owner_id
ORDER BY o.created_at, o.order_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) RequestClaim(ctx context.Context, orderID, staffID string, expectedVersion int64) (domain.Order, error) {
	row := p.pool.QueryRow(ctx, `
WITH o AS (
	UPDATE orders SET status='Processing', owner_id=$2, claimed_at=now(), version=version+1
	WHERE id=$1 AND version=$3 AND status='New'
	RETURNING *
)
SELECT`+orderColumns+`
FROM o LEFT JOIN staff s ON s.id = o.owner_id`,
		orderID, staffID, expectedVersion)
	return p.one(ctx, row, orderID)
}

func (p *Postgres) RequestUnclaim(ctx context.Context, orderID string, expectedVersion int64) (domain.Order, error) {
	row := p.pool.QueryRow(ctx, `
WITH o AS (
	UPDATE orders SET status='New', owner_id=NULL, claimed_at=NULL, version=version+1
	WHERE id=$1 AND version=$2 AND status='Processing'
	RETURNING *
)
SELECT`+orderColumns+`
FROM o LEFT JOIN staff s ON s.id = o.owner_id`,
		orderID, expectedVersion)
	return p.one(ctx, row, orderID)
}

func (p *Postgres) RequestSetStatus(ctx context.Context, orderID string, status domain.Status, expectedVersion int64) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	row := p.pool.QueryRow(ctx, `
WITH o AS (
	UPDATE orders SET
		status=$2,
		owner_id   = CASE WHEN $2 = 'Processing' THEN owner_id   ELSE NULL END,
		claimed_at = CASE WHEN $2 = 'Processing' THEN claimed_at ELSE NULL END,
		version=version+1
	WHERE id=$1 AND version=$3
	RETURNING *
)
SELECT`+orderColumns+`
FROM o LEFT JOIN staff s ON s.id = o.owner_id`,
		orderID, string(status), expectedVersion)
	return p.one(ctx, row, orderID)
}

// one scans the updated row, classifying an empty result as a version
// conflict when the order exists and NotFound when it does not.
func (p *Postgres) one(ctx context.Context, row pgx.Row, orderID string) (domain.Order, error) {
	o, err := scanOrder(row)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, err
	}
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return domain.Order{}, err
	}
	if !exists {
		return domain.Order{}, domain.ErrNotFound
	}
	return domain.Order{}, fmt.Errorf("%w: order %s changed concurrently", domain.ErrConflict, orderID)
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.FirstName, &o.LastName, &status,
		&o.OwnerID, &o.OwnerName,
		&o.ClaimedAt, &o.PrepMinutes, &o.Total, &o.CreatedAt, &o.Version,
	)
	o.Status = domain.Status(status)
	return o, err
}
