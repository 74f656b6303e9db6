// Package catalog defines the sellable item model and its read-side
// repository contract.
package catalog

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/akarev/checkout-api/internal/domain/currency"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// Item is a catalog entry available for purchase. Price is a non-negative
// amount of minor units in the item's own currency. Items are immutable from
// the checkout flow's point of view.
type Item struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Currency    currency.Currency
}

// DisplayPrice renders the item price with its currency symbol.
func (i Item) DisplayPrice() string {
	return i.Currency.Format(i.Price)
}

// Repository defines read operations over the catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Item, error)
}
