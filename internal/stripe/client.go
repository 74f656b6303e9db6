// Package stripe is a thin client for the handful of Stripe REST endpoints
// the checkout flow needs: payment intents, hosted checkout sessions, and
// coupons. It speaks the form-encoded wire format directly and stays behind
// the checkout.Gateway interface so nothing else in the system touches the
// network.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/akarev/checkout-api/internal/domain/checkout"
)

// DefaultBaseURL is the production Stripe API endpoint. Tests and local
// stacks point the client at stripe-mock instead.
const DefaultBaseURL = "https://api.stripe.com"

// APIError is a decoded Stripe error response. The upstream message is kept
// verbatim for diagnostics; handlers surface it to the caller.
type APIError struct {
	Status  int
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("stripe: %s (http %d)", e.Type, e.Status)
}

var _ checkout.Gateway = (*Client)(nil)

// Client calls the Stripe API with secret-key authentication.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (e.g. a stripe-mock container).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client authenticated with the given secret key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreatePaymentIntent creates a payment intent with automatic payment
// methods enabled and returns its client secret.
func (c *Client) CreatePaymentIntent(ctx context.Context, p checkout.PaymentIntentParams) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("currency", p.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if p.Description != "" {
		form.Set("description", p.Description)
	}
	encodeMetadata(form, p.Metadata)

	var out struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := c.post(ctx, "/v1/payment_intents", form, &out); err != nil {
		return "", err
	}
	return out.ClientSecret, nil
}

// CreateCheckoutSession creates a hosted checkout session in payment mode
// with a single line item covering the order total.
func (c *Client) CreateCheckoutSession(ctx context.Context, p checkout.SessionParams) (*checkout.Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", p.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.Name)
	if p.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", p.Description)
	}
	encodeMetadata(form, p.Metadata)

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/v1/checkout/sessions", form, &out); err != nil {
		return nil, err
	}
	return &checkout.Session{ID: out.ID, URL: out.URL}, nil
}

// CreateCoupon registers a single-use percent-off coupon and returns its id.
func (c *Client) CreateCoupon(ctx context.Context, name string, percentOff float64) (string, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("percent_off", strconv.FormatFloat(percentOff, 'f', -1, 64))
	form.Set("duration", "once")

	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/coupons", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var wrapper struct {
			Error *APIError `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &wrapper); jsonErr == nil && wrapper.Error != nil {
			apiErr.Type = wrapper.Error.Type
			apiErr.Code = wrapper.Error.Code
			apiErr.Message = wrapper.Error.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}

// encodeMetadata flattens a string map into Stripe's metadata[key] form keys.
func encodeMetadata(form url.Values, md map[string]string) {
	for k, v := range md {
		form.Set("metadata["+k+"]", v)
	}
}
