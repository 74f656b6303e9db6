// Package order holds the order aggregate, its pricing engine, and the
// materialization of carts into orders.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/currency"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when materializing an order from an empty
	// cart. It is recoverable: callers redirect to the catalog instead of
	// failing the request.
	ErrEmptyCart = errors.New("cart is empty")
)

// Discount is a percent-based reduction applied to an order's subtotal.
type Discount struct {
	ID      int64
	Name    string
	Percent decimal.Decimal
}

// Tax is a percent-based charge applied to an order's post-discount subtotal.
type Tax struct {
	ID      int64
	Name    string
	Percent decimal.Decimal
}

// LineItem links an order to a catalog item with a multiplicity. Quantity is
// fixed when the order is materialized from a cart and never re-derived.
type LineItem struct {
	ID       int64
	ItemID   int64
	Quantity int
	Item     catalog.Item
}

// Order is a priced collection of line items. PaymentCurrency is fixed at
// creation. Monetary totals are derived from the line items on every read
// and never stored, so reassigning the discount or tax can never leave a
// stale total behind.
type Order struct {
	ID              int64
	PaymentCurrency currency.Currency
	Discount        *Discount
	Tax             *Tax
	CreatedAt       time.Time
	LineItems       []LineItem
}

// Repository defines persistence operations for orders. Create persists the
// order together with its line items atomically and assigns the order id.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
}

// DiscountRepository provides lookup of discounts.
type DiscountRepository interface {
	GetByID(ctx context.Context, id int64) (*Discount, error)
	List(ctx context.Context) ([]Discount, error)
}

// TaxRepository provides lookup of taxes.
type TaxRepository interface {
	GetByID(ctx context.Context, id int64) (*Tax, error)
	List(ctx context.Context) ([]Tax, error)
}
