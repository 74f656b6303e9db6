package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/akarev/checkout-api/internal/domain/checkout"
	"github.com/akarev/checkout-api/internal/domain/currency"
	"github.com/akarev/checkout-api/internal/domain/order"
)

type orderLineResponse struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	PaymentCurrency string              `json:"payment_currency"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []orderLineResponse `json:"items"`
	Subtotal        int64               `json:"subtotal"`
	DiscountPercent float64             `json:"discount_percent"`
	DiscountAmount  int64               `json:"discount_amount"`
	TaxPercent      float64             `json:"tax_percent"`
	TaxAmount       int64               `json:"tax_amount"`
	Total           int64               `json:"total"`
	DisplayTotal    string              `json:"display_total"`
}

func toOrderResponse(o *order.Order) orderResponse {
	b := checkout.BreakdownOf(o)

	items := make([]orderLineResponse, len(o.LineItems))
	for i, li := range o.LineItems {
		items[i] = orderLineResponse{
			ItemID:   li.ItemID,
			Name:     li.Item.Name,
			Quantity: li.Quantity,
			Price:    li.Item.Price,
			Currency: li.Item.Currency.String(),
		}
	}

	return orderResponse{
		ID:              o.ID,
		PaymentCurrency: o.PaymentCurrency.String(),
		CreatedAt:       o.CreatedAt,
		Items:           items,
		Subtotal:        b.Subtotal,
		DiscountPercent: b.DiscountPercent,
		DiscountAmount:  b.DiscountAmount,
		TaxPercent:      b.TaxPercent,
		TaxAmount:       b.TaxAmount,
		Total:           b.Total,
		DisplayTotal:    o.DisplayTotal(),
	}
}

type createOrderRequest struct {
	DiscountID *int64 `json:"discount_id"`
	TaxID      *int64 `json:"tax_id"`
}

// createOrder materializes an order from the session's cart, fixed to the
// session's selected payment currency (usd when none was picked). The cart
// itself survives until payment is confirmed; only the pending order marker
// is written back here.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req createOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	payCcy := sess.PaymentCurrency
	if payCcy == "" {
		payCcy = currency.USD
	}

	o, err := h.orders.CreateFromCart(r.Context(), sess.Cart, order.CreateParams{
		PaymentCurrency: payCcy,
		DiscountID:      req.DiscountID,
		TaxID:           req.TaxID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess.PendingOrderID = o.ID
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// createPaymentIntent charges the order total through the gateway and
// returns the client secret for the frontend to confirm.
func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	secret, err := h.checkout.PaymentIntent(r.Context(), o)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

// createCheckoutSession starts the hosted-page checkout flow (the legacy
// alternative to payment intents).
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess, err := h.checkout.CheckoutSession(r.Context(), o)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sess.ID,
		"url":       sess.URL,
	})
}

// paymentSucceeded is the post-payment callback: once a pending order is
// confirmed the cart is finally cleared and the marker dropped. Without a
// pending order it is a no-op.
func (h *Handler) paymentSucceeded(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if sess.PendingOrderID != 0 {
		sess.Cart.Clear()
		sess.PendingOrderID = 0
		if err := h.sessions.Save(r.Context(), sess); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
