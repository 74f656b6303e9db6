// Package httpapi exposes the checkout flow as a JSON HTTP API. It owns the
// session cookie, maps domain errors to HTTP statuses, and keeps all
// transport concerns out of the domain packages.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akarev/checkout-api/internal/domain/cart"
	"github.com/akarev/checkout-api/internal/domain/catalog"
	"github.com/akarev/checkout-api/internal/domain/checkout"
	"github.com/akarev/checkout-api/internal/domain/order"
)

// sessionCookie is the cookie carrying the cart session identifier.
const sessionCookie = "sid"

// catalogPath is where empty-cart checkouts are redirected to.
const catalogPath = "/api/items"

// Handler wires the domain services into HTTP endpoints.
type Handler struct {
	items     catalog.Repository
	discounts order.DiscountRepository
	taxes     order.TaxRepository
	orders    *order.Service
	checkout  *checkout.Service
	sessions  cart.Store
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	items catalog.Repository,
	discounts order.DiscountRepository,
	taxes order.TaxRepository,
	orders *order.Service,
	co *checkout.Service,
	sessions cart.Store,
) *Handler {
	return &Handler{
		items:     items,
		discounts: discounts,
		taxes:     taxes,
		orders:    orders,
		checkout:  co,
		sessions:  sessions,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", h.listItems)
		r.Get("/items/{id}", h.getItem)
		r.Get("/discounts", h.listDiscounts)
		r.Get("/taxes", h.listTaxes)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.viewCart)
			r.Delete("/", h.clearCart)
			r.Post("/items/{id}", h.addToCart)
			r.Delete("/items/{id}", h.removeFromCart)
			r.Post("/items/{id}/increase", h.increaseQuantity)
			r.Post("/items/{id}/decrease", h.decreaseQuantity)
			r.Post("/buy-now/{id}", h.buyNow)
			r.Put("/currency/{code}", h.changeCurrency)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/{id}", h.getOrder)
			r.Post("/{id}/payment-intent", h.createPaymentIntent)
			r.Post("/{id}/checkout-session", h.createCheckoutSession)
		})

		r.Post("/checkout/success", h.paymentSucceeded)
	})
	return r
}

// session loads the visitor's session, issuing a new session cookie when the
// request does not carry one.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*cart.Session, error) {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.sessions.Load(r.Context(), id)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondError maps domain errors to HTTP responses: missing entities become
// 404, an empty cart redirects to the catalog, any gateway failure passes the
// upstream message through as 400, anything else is a logged 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyCart):
		http.Redirect(w, r, catalogPath, http.StatusSeeOther)
	default:
		var gwErr *checkout.GatewayError
		if errors.As(err, &gwErr) {
			writeError(w, http.StatusBadRequest, gwErr.Message)
			return
		}
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
