package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (payment_currency, discount_id, tax_id)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	insertLineItemSQL = `INSERT INTO order_items (order_id, item_id, quantity)
		VALUES ($1, $2, $3) RETURNING id`

	getOrderSQL = `SELECT
			o.id, o.payment_currency, o.created_at,
			d.id, d.name, d.percent,
			t.id, t.name, t.percent
		FROM orders o
		LEFT JOIN discounts d ON d.id = o.discount_id
		LEFT JOIN taxes t ON t.id = o.tax_id
		WHERE o.id = $1`

	getLineItemsSQL = `SELECT
			oi.id, oi.item_id, oi.quantity,
			i.id, i.name, i.description, i.price, i.currency
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and its line items in one transaction and
// assigns the generated ids.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var discountID, taxID *int64
	if o.Discount != nil {
		discountID = &o.Discount.ID
	}
	if o.Tax != nil {
		taxID = &o.Tax.ID
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		string(o.PaymentCurrency), discountID, taxID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for i := range o.LineItems {
		li := &o.LineItems[i]
		err := tx.QueryRow(ctx, insertLineItemSQL, o.ID, li.ItemID, li.Quantity).Scan(&li.ID)
		if err != nil {
			return fmt.Errorf("inserting line item for item %d: %w", li.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %d: %w", o.ID, err)
	}
	return nil
}

// GetByID loads an order with its discount, tax, and hydrated line items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var (
		o               order.Order
		ccy             string
		discountID      *int64
		discountName    *string
		discountPercent *decimal.Decimal
		taxID           *int64
		taxName         *string
		taxPercent      *decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &ccy, &o.CreatedAt,
		&discountID, &discountName, &discountPercent,
		&taxID, &taxName, &taxPercent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o.PaymentCurrency = currencyFromDB(ccy)
	if discountID != nil {
		o.Discount = &order.Discount{ID: *discountID, Name: *discountName, Percent: *discountPercent}
	}
	if taxID != nil {
		o.Tax = &order.Tax{ID: *taxID, Name: *taxName, Percent: *taxPercent}
	}

	rows, err := r.pool.Query(ctx, getLineItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting line items for order %d: %w", id, err)
	}
	o.LineItems, err = pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return nil, fmt.Errorf("getting line items for order %d: %w", id, err)
	}

	return &o, nil
}

func scanLineItem(row pgx.CollectableRow) (order.LineItem, error) {
	var (
		li  order.LineItem
		it  catalog.Item
		ccy string
	)
	err := row.Scan(
		&li.ID, &li.ItemID, &li.Quantity,
		&it.ID, &it.Name, &it.Description, &it.Price, &ccy,
	)
	it.Currency = currencyFromDB(ccy)
	li.Item = it
	return li, err
}
