package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akarev/checkout-api/internal/domain/order"
)

var (
	_ order.DiscountRepository = (*DiscountRepository)(nil)
	_ order.TaxRepository      = (*TaxRepository)(nil)
)

// DiscountRepository implements order.DiscountRepository backed by
// PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given
// pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// GetByID returns a discount by its identifier.
func (r *DiscountRepository) GetByID(ctx context.Context, id int64) (*order.Discount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, percent FROM discounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[order.Discount])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}
	return &d, nil
}

// List returns all discounts ordered by name.
func (r *DiscountRepository) List(ctx context.Context) ([]order.Discount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, percent FROM discounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[order.Discount])
}

// Insert adds a discount and assigns its id. Used by the seeding tool.
func (r *DiscountRepository) Insert(ctx context.Context, d *order.Discount) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO discounts (name, percent) VALUES ($1, $2) RETURNING id`,
		d.Name, d.Percent,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("inserting discount %q: %w", d.Name, err)
	}
	return nil
}

// TaxRepository implements order.TaxRepository backed by PostgreSQL.
type TaxRepository struct {
	pool *pgxpool.Pool
}

// NewTaxRepository returns a TaxRepository that uses the given pool.
func NewTaxRepository(pool *pgxpool.Pool) *TaxRepository {
	return &TaxRepository{pool: pool}
}

// GetByID returns a tax by its identifier.
func (r *TaxRepository) GetByID(ctx context.Context, id int64) (*order.Tax, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, percent FROM taxes WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting tax %d: %w", id, err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[order.Tax])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting tax %d: %w", id, err)
	}
	return &t, nil
}

// List returns all taxes ordered by name.
func (r *TaxRepository) List(ctx context.Context) ([]order.Tax, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, percent FROM taxes ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing taxes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[order.Tax])
}

// Insert adds a tax and assigns its id. Used by the seeding tool.
func (r *TaxRepository) Insert(ctx context.Context, t *order.Tax) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO taxes (name, percent) VALUES ($1, $2) RETURNING id`,
		t.Name, t.Percent,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("inserting tax %q: %w", t.Name, err)
	}
	return nil
}
