// Package cart implements the session-scoped shopping cart.
//
// The cart is an explicit value mutated by its operations and persisted
// through a Store, rather than ambient session state. One session owns
// exactly one cart; two concurrent mutations of the same session may lose an
// increment, which is an accepted limitation of cookie-session carts.
package cart

import (
	"context"
	"iter"
	"slices"

	"github.com/akarev/checkout-api/internal/domain/currency"
)

// Cart maps a catalog item id (string key, matching the session wire format)
// to its entry. An entry never holds a quantity below one: operations that
// would drop it to zero remove the key instead.
type Cart map[string]Entry

// Entry holds the per-item cart state.
type Entry struct {
	Quantity int `json:"quantity"`
}

// New returns an empty cart.
func New() Cart {
	return make(Cart)
}

// Add inserts the item with quantity one, or increments an existing entry.
func (c Cart) Add(itemID string) {
	e := c[itemID]
	e.Quantity++
	c[itemID] = e
}

// Remove deletes the entry unconditionally. Removing an absent item is a
// no-op.
func (c Cart) Remove(itemID string) {
	delete(c, itemID)
}

// Adjust changes an existing entry's quantity by delta. If the result drops
// to zero or below the entry is removed. Adjusting an absent item is a no-op.
func (c Cart) Adjust(itemID string, delta int) {
	e, ok := c[itemID]
	if !ok {
		return
	}
	e.Quantity += delta
	if e.Quantity <= 0 {
		delete(c, itemID)
		return
	}
	c[itemID] = e
}

// ReplaceWithSingle clears the cart and inserts exactly one entry with
// quantity one ("buy now" semantics).
func (c Cart) ReplaceWithSingle(itemID string) {
	clear(c)
	c[itemID] = Entry{Quantity: 1}
}

// Clear empties the cart.
func (c Cart) Clear() {
	clear(c)
}

// Empty reports whether the cart has no entries.
func (c Cart) Empty() bool {
	return len(c) == 0
}

// Count returns the total quantity across all entries.
func (c Cart) Count() int {
	n := 0
	for _, e := range c {
		n += e.Quantity
	}
	return n
}

// Snapshot returns a restartable sequence of (itemID, quantity) pairs in
// sorted key order, reflecting the cart state at iteration time.
func (c Cart) Snapshot() iter.Seq2[string, int] {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return func(yield func(string, int) bool) {
		for _, k := range keys {
			if e, ok := c[k]; ok {
				if !yield(k, e.Quantity) {
					return
				}
			}
		}
	}
}

// Session is the per-visitor state persisted by a Store: the cart itself plus
// the selected payment currency and the id of an order awaiting payment
// confirmation (zero when none).
type Session struct {
	ID              string
	Cart            Cart
	PaymentCurrency currency.Currency // empty until the visitor picks one
	PendingOrderID  int64
}

// Store persists sessions keyed by their id. Load returns a fresh empty
// session when the id is unknown; sessions come into existence on first
// access.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}
