package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/currency"
	"github.com/akarev/checkout-api/internal/domain/order"
)

// --- Mock gateway ---

type mockGateway struct {
	intentParams  *PaymentIntentParams
	intentSecret  string
	intentErr     error
	sessionParams *SessionParams
	session       *Session
	sessionErr    error
	couponNames   []string
	couponErrs    []error // consumed per call, nil after exhaustion
	couponID      string
}

func (m *mockGateway) CreatePaymentIntent(_ context.Context, p PaymentIntentParams) (string, error) {
	m.intentParams = &p
	return m.intentSecret, m.intentErr
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, p SessionParams) (*Session, error) {
	m.sessionParams = &p
	return m.session, m.sessionErr
}

func (m *mockGateway) CreateCoupon(_ context.Context, name string, _ float64) (string, error) {
	m.couponNames = append(m.couponNames, name)
	if len(m.couponErrs) > 0 {
		err := m.couponErrs[0]
		m.couponErrs = m.couponErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.couponID, nil
}

// --- Helpers ---

func pricedOrder() *order.Order {
	return &order.Order{
		ID:              42,
		PaymentCurrency: currency.USD,
		Discount:        &order.Discount{ID: 1, Name: "spring", Percent: decimal.NewFromInt(10)},
		Tax:             &order.Tax{ID: 2, Name: "vat", Percent: decimal.NewFromInt(20)},
		LineItems: []order.LineItem{
			{
				ItemID:   1,
				Quantity: 1,
				Item:     catalog.Item{ID: 1, Name: "Widget", Price: 5000, Currency: currency.USD},
			},
		},
	}
}

// --- Tests ---

func TestBreakdownOf(t *testing.T) {
	b := BreakdownOf(pricedOrder())

	assert.Equal(t, int64(5000), b.Subtotal)
	assert.Equal(t, 10.0, b.DiscountPercent)
	assert.Equal(t, int64(500), b.DiscountAmount)
	assert.Equal(t, 20.0, b.TaxPercent)
	assert.Equal(t, int64(900), b.TaxAmount)
	assert.Equal(t, int64(5400), b.Total)
	assert.Equal(t, "usd", b.Currency)
}

func TestBreakdownOf_NoAdjustments(t *testing.T) {
	o := pricedOrder()
	o.Discount = nil
	o.Tax = nil

	b := BreakdownOf(o)
	assert.Zero(t, b.DiscountPercent)
	assert.Zero(t, b.TaxPercent)
	assert.Equal(t, b.Subtotal, b.Total)
}

func TestPaymentIntent(t *testing.T) {
	gw := &mockGateway{intentSecret: "pi_123_secret"}
	svc := NewService(gw, Config{})

	secret, err := svc.PaymentIntent(context.Background(), pricedOrder())

	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret", secret)

	require.NotNil(t, gw.intentParams)
	assert.Equal(t, int64(5400), gw.intentParams.Amount)
	assert.Equal(t, "usd", gw.intentParams.Currency)
	assert.Equal(t, "Order #42 | Discount: 10% (-$5.00) | Tax: 20% (+$9.00)", gw.intentParams.Description)
	assert.Equal(t, "42", gw.intentParams.Metadata["order_id"])
	assert.Equal(t, "1", gw.intentParams.Metadata["items_count"])
	assert.Equal(t, "5400", gw.intentParams.Metadata["total"])
	assert.Equal(t, "usd", gw.intentParams.Metadata["currency"])
}

func TestPaymentIntent_GatewayError(t *testing.T) {
	cause := errors.New("card network down")
	gw := &mockGateway{intentErr: cause}
	svc := NewService(gw, Config{})

	_, err := svc.PaymentIntent(context.Background(), pricedOrder())
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "card network down", gwErr.Message)
	assert.ErrorIs(t, err, cause)
}

func TestCheckoutSession_GatewayError(t *testing.T) {
	gw := &mockGateway{sessionErr: errors.New("connection refused")}
	svc := NewService(gw, Config{})

	_, err := svc.CheckoutSession(context.Background(), pricedOrder())

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "connection refused", gwErr.Message)
}

func TestCheckoutSession(t *testing.T) {
	gw := &mockGateway{session: &Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc := NewService(gw, Config{
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cart",
	})

	sess, err := svc.CheckoutSession(context.Background(), pricedOrder())

	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "https://pay.example/cs_1", sess.URL)

	require.NotNil(t, gw.sessionParams)
	assert.Equal(t, "Order #42", gw.sessionParams.Name)
	assert.Equal(t, int64(5400), gw.sessionParams.Amount)
	assert.Equal(t, "https://shop.example/success", gw.sessionParams.SuccessURL)
	assert.Equal(t, "https://shop.example/cart", gw.sessionParams.CancelURL)
}

func TestDescribe_PartsOnlyWhenPresent(t *testing.T) {
	o := pricedOrder()
	o.Discount = nil
	o.Tax = nil
	gw := &mockGateway{intentSecret: "s"}
	svc := NewService(gw, Config{})

	_, err := svc.PaymentIntent(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, "Order #42", gw.intentParams.Description)
}

func TestEnsureCoupon(t *testing.T) {
	gw := &mockGateway{couponID: "coup_1"}
	svc := NewService(gw, Config{})

	id, err := svc.EnsureCoupon(context.Background(), "spring", decimal.NewFromInt(10))

	require.NoError(t, err)
	assert.Equal(t, "coup_1", id)
	assert.Equal(t, []string{"spring"}, gw.couponNames)
}

func TestEnsureCoupon_RetriesWithUniquifiedName(t *testing.T) {
	gw := &mockGateway{
		couponID:   "coup_2",
		couponErrs: []error{errors.New("coupon name already exists")},
	}
	svc := NewService(gw, Config{})
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	id, err := svc.EnsureCoupon(context.Background(), "spring", decimal.NewFromInt(10))

	require.NoError(t, err)
	assert.Equal(t, "coup_2", id)
	require.Len(t, gw.couponNames, 2)
	assert.Equal(t, "spring", gw.couponNames[0])
	assert.Equal(t, "spring_1700000000", gw.couponNames[1])
}

func TestEnsureCoupon_SecondFailureIsFinal(t *testing.T) {
	gw := &mockGateway{
		couponErrs: []error{errors.New("first"), errors.New("second")},
	}
	svc := NewService(gw, Config{})

	_, err := svc.EnsureCoupon(context.Background(), "spring", decimal.NewFromInt(10))

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "second", gwErr.Message)
	assert.Len(t, gw.couponNames, 2)
}
