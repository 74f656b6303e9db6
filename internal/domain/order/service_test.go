package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarev/checkout-api/internal/domain/cart"
	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/currency"
)

// --- Mock implementations ---

type mockItemRepo struct {
	byID   map[int64]catalog.Item
	getErr error
}

func (m *mockItemRepo) List(_ context.Context) ([]catalog.Item, error) {
	return nil, nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id int64) (*catalog.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	it, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &it, nil
}

func (m *mockItemRepo) GetByIDs(_ context.Context, ids []int64) ([]catalog.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []catalog.Item
	for _, id := range ids {
		if it, ok := m.byID[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

type mockDiscountRepo struct {
	byID map[int64]*Discount
}

func (m *mockDiscountRepo) GetByID(_ context.Context, id int64) (*Discount, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockDiscountRepo) List(_ context.Context) ([]Discount, error) { return nil, nil }

type mockTaxRepo struct {
	byID map[int64]*Tax
}

func (m *mockTaxRepo) GetByID(_ context.Context, id int64) (*Tax, error) {
	tx, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

func (m *mockTaxRepo) List(_ context.Context) ([]Tax, error) { return nil, nil }

type mockOrderRepo struct {
	lastCreated *Order
	createErr   error
	nextID      int64
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	o.ID = m.nextID
	m.lastCreated = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	if m.lastCreated != nil && m.lastCreated.ID == id {
		return m.lastCreated, nil
	}
	return nil, ErrNotFound
}

// --- Helpers ---

func newItemRepo(items ...catalog.Item) *mockItemRepo {
	byID := make(map[int64]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return &mockItemRepo{byID: byID}
}

func newService(items *mockItemRepo, orders *mockOrderRepo) *Service {
	return NewService(items, &mockDiscountRepo{}, &mockTaxRepo{}, orders)
}

func cartWith(entries map[string]int) cart.Cart {
	c := cart.New()
	for id, qty := range entries {
		for range qty {
			c.Add(id)
		}
	}
	return c
}

// --- Tests ---

func TestCreateFromCart_EmptyCart(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newService(newItemRepo(), orders)

	_, err := svc.CreateFromCart(context.Background(), cart.New(), CreateParams{
		PaymentCurrency: currency.USD,
	})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, orders.lastCreated, "empty cart must not create an order")
}

func TestCreateFromCart_SingleItemQuantity(t *testing.T) {
	it := catalog.Item{ID: 1, Name: "Widget", Price: 1000, Currency: currency.USD}
	orders := &mockOrderRepo{}
	svc := newService(newItemRepo(it), orders)

	o, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"1": 3}), CreateParams{
		PaymentCurrency: currency.USD,
	})

	require.NoError(t, err)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, 3, o.LineItems[0].Quantity)
	assert.Equal(t, int64(1), o.LineItems[0].ItemID)
	assert.Equal(t, int64(3000), o.TotalPrice())
	assert.Same(t, o, orders.lastCreated)
}

func TestCreateFromCart_MultipleItems(t *testing.T) {
	widget := catalog.Item{ID: 1, Name: "Widget", Price: 1000, Currency: currency.USD}
	gadget := catalog.Item{ID: 2, Name: "Gadget", Price: 2500, Currency: currency.USD}
	svc := newService(newItemRepo(widget, gadget), &mockOrderRepo{})

	o, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"1": 2, "2": 1}), CreateParams{
		PaymentCurrency: currency.USD,
	})

	require.NoError(t, err)
	require.Len(t, o.LineItems, 2)
	assert.Equal(t, int64(4500), o.Subtotal())
	assert.Equal(t, currency.USD, o.PaymentCurrency)
}

func TestCreateFromCart_MissingItem(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newService(newItemRepo(), orders)

	_, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"99": 1}), CreateParams{
		PaymentCurrency: currency.USD,
	})

	var nfErr *ItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "99", nfErr.ItemID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Nil(t, orders.lastCreated)
}

func TestCreateFromCart_NonNumericKey(t *testing.T) {
	svc := newService(newItemRepo(), &mockOrderRepo{})

	c := cart.New()
	c.Add("not-a-number")
	_, err := svc.CreateFromCart(context.Background(), c, CreateParams{
		PaymentCurrency: currency.USD,
	})

	var nfErr *ItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "not-a-number", nfErr.ItemID)
}

func TestCreateFromCart_WithDiscountAndTax(t *testing.T) {
	it := catalog.Item{ID: 1, Name: "Widget", Price: 5000, Currency: currency.USD}
	discounts := &mockDiscountRepo{byID: map[int64]*Discount{
		7: {ID: 7, Name: "spring", Percent: decimal.NewFromInt(10)},
	}}
	taxes := &mockTaxRepo{byID: map[int64]*Tax{
		3: {ID: 3, Name: "vat", Percent: decimal.NewFromInt(20)},
	}}
	svc := NewService(newItemRepo(it), discounts, taxes, &mockOrderRepo{})

	discountID, taxID := int64(7), int64(3)
	o, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"1": 1}), CreateParams{
		PaymentCurrency: currency.USD,
		DiscountID:      &discountID,
		TaxID:           &taxID,
	})

	require.NoError(t, err)
	require.NotNil(t, o.Discount)
	require.NotNil(t, o.Tax)
	assert.Equal(t, int64(5400), o.TotalPrice())
}

func TestCreateFromCart_UnknownDiscount(t *testing.T) {
	it := catalog.Item{ID: 1, Name: "Widget", Price: 1000, Currency: currency.USD}
	orders := &mockOrderRepo{}
	svc := newService(newItemRepo(it), orders)

	discountID := int64(404)
	_, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"1": 1}), CreateParams{
		PaymentCurrency: currency.USD,
		DiscountID:      &discountID,
	})

	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, orders.lastCreated)
}

func TestCreateFromCart_DoesNotMutateCart(t *testing.T) {
	it := catalog.Item{ID: 1, Name: "Widget", Price: 1000, Currency: currency.USD}
	svc := newService(newItemRepo(it), &mockOrderRepo{})

	c := cartWith(map[string]int{"1": 2})
	_, err := svc.CreateFromCart(context.Background(), c, CreateParams{
		PaymentCurrency: currency.USD,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())
}

func TestCreateFromCart_RepoError(t *testing.T) {
	it := catalog.Item{ID: 1, Name: "Widget", Price: 1000, Currency: currency.USD}
	orders := &mockOrderRepo{createErr: errors.New("db write failed")}
	svc := newService(newItemRepo(it), orders)

	_, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"1": 1}), CreateParams{
		PaymentCurrency: currency.USD,
	})

	require.Error(t, err)
}

func TestGet(t *testing.T) {
	it := catalog.Item{ID: 1, Name: "Widget", Price: 1000, Currency: currency.USD}
	orders := &mockOrderRepo{}
	svc := newService(newItemRepo(it), orders)

	created, err := svc.CreateFromCart(context.Background(), cartWith(map[string]int{"1": 1}), CreateParams{
		PaymentCurrency: currency.USD,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}
