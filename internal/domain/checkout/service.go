package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akarev/checkout-api/internal/domain/order"
)

// Config holds the redirect targets for the hosted checkout flow.
type Config struct {
	SuccessURL string
	CancelURL  string
}

// Service builds gateway requests out of priced orders.
type Service struct {
	gateway Gateway
	cfg     Config
	now     func() time.Time
}

// NewService creates a checkout Service over the given gateway.
func NewService(gateway Gateway, cfg Config) *Service {
	return &Service{gateway: gateway, cfg: cfg, now: time.Now}
}

// PaymentIntent creates a gateway payment intent for the order's total and
// returns the client secret the frontend confirms the payment with.
func (s *Service) PaymentIntent(ctx context.Context, o *order.Order) (string, error) {
	b := BreakdownOf(o)

	secret, err := s.gateway.CreatePaymentIntent(ctx, PaymentIntentParams{
		Amount:      b.Total,
		Currency:    b.Currency,
		Description: describe(o, b),
		Metadata:    metadata(o, b),
	})
	if err != nil {
		return "", gatewayError(err)
	}
	return secret, nil
}

// CheckoutSession creates a hosted checkout session for the order's total
// (legacy redirect flow).
func (s *Service) CheckoutSession(ctx context.Context, o *order.Order) (*Session, error) {
	b := BreakdownOf(o)

	sess, err := s.gateway.CreateCheckoutSession(ctx, SessionParams{
		Amount:      b.Total,
		Currency:    b.Currency,
		Name:        fmt.Sprintf("Order #%d", o.ID),
		Description: describe(o, b),
		Metadata:    metadata(o, b),
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		return nil, gatewayError(err)
	}
	return sess, nil
}

// EnsureCoupon registers a percent-off coupon with the gateway and returns
// its id. A name collision (or any other first failure) is retried exactly
// once with the name uniquified by a unix-timestamp suffix; a second failure
// is final.
func (s *Service) EnsureCoupon(ctx context.Context, name string, percent decimal.Decimal) (string, error) {
	pct := percent.InexactFloat64()

	id, err := s.gateway.CreateCoupon(ctx, name, pct)
	if err == nil {
		return id, nil
	}

	unique := fmt.Sprintf("%s_%d", name, s.now().Unix())
	id, err = s.gateway.CreateCoupon(ctx, unique, pct)
	if err != nil {
		return "", gatewayError(err)
	}
	return id, nil
}

// describe builds the human-readable charge description: the order id plus
// discount and tax parts when present.
func describe(o *order.Order, b Breakdown) string {
	parts := []string{fmt.Sprintf("Order #%d", o.ID)}
	if o.Discount != nil {
		parts = append(parts, fmt.Sprintf("Discount: %s%% (-%s)",
			o.Discount.Percent.String(), o.PaymentCurrency.Format(b.DiscountAmount)))
	}
	if o.Tax != nil {
		parts = append(parts, fmt.Sprintf("Tax: %s%% (+%s)",
			o.Tax.Percent.String(), o.PaymentCurrency.Format(b.TaxAmount)))
	}
	return strings.Join(parts, " | ")
}
