package order

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/akarev/checkout-api/internal/domain/cart"
	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/currency"
)

// ItemNotFoundError indicates a cart entry references a catalog item that no
// longer exists. It unwraps to catalog.ErrNotFound.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.ItemID)
}

func (e *ItemNotFoundError) Unwrap() error { return catalog.ErrNotFound }

// CreateParams holds the inputs for materializing an order from a cart.
// DiscountID and TaxID are optional references resolved at creation time.
type CreateParams struct {
	PaymentCurrency currency.Currency
	DiscountID      *int64
	TaxID           *int64
}

// Service materializes carts into persisted orders and loads them back with
// their pricing context.
type Service struct {
	items     catalog.Repository
	discounts DiscountRepository
	taxes     TaxRepository
	orders    Repository
}

// NewService creates an order Service with the required repositories.
func NewService(
	items catalog.Repository,
	discounts DiscountRepository,
	taxes TaxRepository,
	orders Repository,
) *Service {
	return &Service{
		items:     items,
		discounts: discounts,
		taxes:     taxes,
		orders:    orders,
	}
}

// CreateFromCart turns a cart snapshot into a persisted order fixed to the
// given payment currency, one line item per distinct cart entry with its
// quantity carried over verbatim. The cart itself is not mutated; clearing
// it is the caller's responsibility once payment is confirmed.
//
// An empty cart yields ErrEmptyCart and creates nothing. A cart entry whose
// item is missing from the catalog yields ItemNotFoundError and creates
// nothing either: orders are materialized whole or not at all.
func (s *Service) CreateFromCart(ctx context.Context, c cart.Cart, p CreateParams) (*Order, error) {
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	type entry struct {
		key      string
		id       int64
		quantity int
	}
	var entries []entry
	for key, qty := range c.Snapshot() {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, &ItemNotFoundError{ItemID: key}
		}
		entries = append(entries, entry{key: key, id: id, quantity: qty})
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	fetched, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get items")
	}
	byID := make(map[int64]catalog.Item, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	o := &Order{
		PaymentCurrency: p.PaymentCurrency,
		LineItems:       make([]LineItem, 0, len(entries)),
	}
	for _, e := range entries {
		it, ok := byID[e.id]
		if !ok {
			return nil, &ItemNotFoundError{ItemID: e.key}
		}
		o.LineItems = append(o.LineItems, LineItem{
			ItemID:   it.ID,
			Quantity: e.quantity,
			Item:     it,
		})
	}

	if p.DiscountID != nil {
		d, err := s.discounts.GetByID(ctx, *p.DiscountID)
		if err != nil {
			return nil, errors.Wrap(err, "get discount")
		}
		o.Discount = d
	}
	if p.TaxID != nil {
		t, err := s.taxes.GetByID(ctx, *p.TaxID)
		if err != nil {
			return nil, errors.Wrap(err, "get tax")
		}
		o.Tax = t
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get loads an order with its line items, discount, and tax.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}
