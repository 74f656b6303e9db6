package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akarev/checkout-api/internal/domain/cart"
	"github.com/akarev/checkout-api/internal/domain/currency"
)

type cartLineResponse struct {
	Item             itemResponse `json:"item"`
	Quantity         int          `json:"quantity"`
	Subtotal         int64        `json:"subtotal"`
	OriginalCurrency string       `json:"original_currency"`
	Converted        bool         `json:"converted"`
}

type cartResponse struct {
	Items        []cartLineResponse `json:"items"`
	Total        int64              `json:"total"`
	Currency     string             `json:"currency"`
	DisplayTotal string             `json:"display_total"`
	CartCount    int                `json:"cart_count"`
}

// viewCart renders the cart with every line converted into the display
// currency: the session's selected payment currency when set, otherwise the
// first item's native currency, otherwise usd.
func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	lines := make([]cartLineResponse, 0, len(sess.Cart))
	ids := make([]int64, 0, len(sess.Cart))
	quantities := make([]int, 0, len(sess.Cart))
	for key, qty := range sess.Cart.Snapshot() {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		quantities = append(quantities, qty)
	}

	items, err := h.items.GetByIDs(r.Context(), ids)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	byID := make(map[int64]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}

	display := sess.PaymentCurrency
	if display == "" {
		if len(ids) > 0 {
			if i, ok := byID[ids[0]]; ok {
				display = items[i].Currency
			}
		}
		if display == "" {
			display = currency.USD
		}
	}

	var total int64
	for i, id := range ids {
		idx, ok := byID[id]
		if !ok {
			continue // item removed from catalog; skip the stale entry
		}
		it := items[idx]
		qty := quantities[i]
		unit := currency.Convert(it.Price, it.Currency, display)
		subtotal := unit * int64(qty)
		total += subtotal

		lines = append(lines, cartLineResponse{
			Item:             toItemResponse(it),
			Quantity:         qty,
			Subtotal:         subtotal,
			OriginalCurrency: it.Currency.String(),
			Converted:        it.Currency != display,
		})
	}

	writeJSON(w, http.StatusOK, cartResponse{
		Items:        lines,
		Total:        total,
		Currency:     display.String(),
		DisplayTotal: display.Format(total),
		CartCount:    sess.Cart.Count(),
	})
}

// addToCart inserts the item with quantity one, or bumps an existing entry.
// Unknown items are rejected before the cart is touched.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, true, func(s *cart.Session, key string) {
		s.Cart.Add(key)
	})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, false, func(s *cart.Session, key string) {
		s.Cart.Remove(key)
	})
}

func (h *Handler) increaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, false, func(s *cart.Session, key string) {
		s.Cart.Adjust(key, +1)
	})
}

func (h *Handler) decreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, false, func(s *cart.Session, key string) {
		s.Cart.Adjust(key, -1)
	})
}

// buyNow drops everything else from the cart and leaves a single unit of the
// chosen item.
func (h *Handler) buyNow(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, true, func(s *cart.Session, key string) {
		s.Cart.ReplaceWithSingle(key)
	})
}

// mutateCart is the shared add/remove/adjust plumbing: resolve the session,
// optionally require the item to exist in the catalog, apply the mutation,
// and persist. Responds 204 on success.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, requireItem bool, mutate func(*cart.Session, string)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	if requireItem {
		if _, err := h.items.GetByID(r.Context(), id); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	sess, err := h.session(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	mutate(sess, strconv.FormatInt(id, 10))

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess.Cart.Clear()

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changeCurrency records the payment currency for the session. Unsupported
// codes are silently ignored and the previous selection is retained; the
// endpoint always succeeds.
func (h *Handler) changeCurrency(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if c, err := currency.Parse(chi.URLParam(r, "code")); err == nil {
		sess.PaymentCurrency = c
		if err := h.sessions.Save(r.Context(), sess); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
