package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akarev/checkout-api/internal/domain/catalog"
)

type itemResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	DisplayPrice string `json:"display_price"`
}

func toItemResponse(it catalog.Item) itemResponse {
	return itemResponse{
		ID:           it.ID,
		Name:         it.Name,
		Description:  it.Description,
		Price:        it.Price,
		Currency:     it.Currency.String(),
		DisplayPrice: it.DisplayPrice(),
	}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]itemResponse, len(items))
	for i, it := range items {
		out[i] = toItemResponse(it)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	it, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*it))
}

type percentResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Percent string `json:"percent"`
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discounts.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]percentResponse, len(discounts))
	for i, d := range discounts {
		out[i] = percentResponse{ID: d.ID, Name: d.Name, Percent: d.Percent.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listTaxes(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.taxes.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]percentResponse, len(taxes))
	for i, t := range taxes {
		out[i] = percentResponse{ID: t.ID, Name: t.Name, Percent: t.Percent.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, out)
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
