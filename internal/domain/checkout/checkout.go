// Package checkout translates priced orders into payment-gateway calls. The
// gateway itself is an external collaborator reached through the narrow
// Gateway interface, so everything above it can be tested without a network.
package checkout

import (
	"context"
	"strconv"

	"github.com/akarev/checkout-api/internal/domain/order"
)

// PaymentIntentParams is the request for a gateway payment intent. Amount is
// the charge total in minor units.
type PaymentIntentParams struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// SessionParams is the request for a hosted checkout session (the legacy
// redirect flow). The single line covers the whole order total.
type SessionParams struct {
	Amount      int64
	Currency    string
	Name        string
	Description string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// Session is the gateway's handle for a hosted checkout page.
type Session struct {
	ID  string
	URL string
}

// Gateway is the boundary with the external payment processor. One call per
// checkout attempt; failures surface to the caller, retries are not the
// adapter's business (the single coupon-name exception lives in
// Service.EnsureCoupon).
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, p PaymentIntentParams) (clientSecret string, err error)
	CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error)
	CreateCoupon(ctx context.Context, name string, percentOff float64) (couponID string, err error)
}

// GatewayError marks any gateway failure, from a declined card to a refused
// connection. Message carries the upstream explanation verbatim so handlers
// can pass it through to the client.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string { return e.Message }

func (e *GatewayError) Unwrap() error { return e.Err }

// gatewayError wraps a raw gateway error so callers can detect the class
// without knowing the concrete gateway implementation.
func gatewayError(err error) *GatewayError {
	return &GatewayError{Message: err.Error(), Err: err}
}

// Breakdown is the monetary decomposition of an order in its payment
// currency, as handed to the gateway and exposed on the order read side.
type Breakdown struct {
	Subtotal        int64
	DiscountPercent float64
	DiscountAmount  int64
	TaxPercent      float64
	TaxAmount       int64
	Total           int64
	Currency        string
}

// BreakdownOf derives the breakdown from the order's pricing engine.
func BreakdownOf(o *order.Order) Breakdown {
	b := Breakdown{
		Subtotal:       o.Subtotal(),
		DiscountAmount: o.DiscountAmount(),
		TaxAmount:      o.TaxAmount(),
		Total:          o.TotalPrice(),
		Currency:       o.PaymentCurrency.String(),
	}
	if o.Discount != nil {
		b.DiscountPercent = o.Discount.Percent.InexactFloat64()
	}
	if o.Tax != nil {
		b.TaxPercent = o.Tax.Percent.InexactFloat64()
	}
	return b
}

// metadata flattens the breakdown into the string map the gateway records
// against the charge.
func metadata(o *order.Order, b Breakdown) map[string]string {
	return map[string]string{
		"order_id":         strconv.FormatInt(o.ID, 10),
		"items_count":      strconv.Itoa(len(o.LineItems)),
		"subtotal":         strconv.FormatInt(b.Subtotal, 10),
		"discount_percent": strconv.FormatFloat(b.DiscountPercent, 'f', -1, 64),
		"discount_amount":  strconv.FormatInt(b.DiscountAmount, 10),
		"tax_percent":      strconv.FormatFloat(b.TaxPercent, 'f', -1, 64),
		"tax_amount":       strconv.FormatInt(b.TaxAmount, 10),
		"total":            strconv.FormatInt(b.Total, 10),
		"currency":         b.Currency,
	}
}
