//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// firstItem returns a seeded item to exercise the cart with.
func firstItem(t *testing.T) itemResponse {
	t.Helper()

	resp := doGet(t, "/api/items")
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)

	items := decodeJSON[[]itemResponse](t, resp)
	if len(items) == 0 {
		t.Fatal("no seeded items")
	}
	return items[0]
}

func TestCartLifecycle(t *testing.T) {
	s := newSession(t)
	it := firstItem(t)

	// Empty to start.
	resp := s.get("/api/cart")
	requireStatus(t, resp, http.StatusOK)
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.CartCount != 0 {
		t.Fatalf("fresh session has %d items in cart", c.CartCount)
	}

	// Add twice, then inspect.
	for range 2 {
		resp = s.post(fmt.Sprintf("/api/cart/items/%d", it.ID), nil)
		requireStatus(t, resp, http.StatusNoContent)
		resp.Body.Close()
	}

	resp = s.get("/api/cart")
	requireStatus(t, resp, http.StatusOK)
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", c.Items)
	}
	if c.Total != c.Items[0].Subtotal {
		t.Fatalf("total %d != line subtotal %d", c.Total, c.Items[0].Subtotal)
	}

	// Decrease to one, then remove.
	resp = s.post(fmt.Sprintf("/api/cart/items/%d/decrease", it.ID), nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.delete(fmt.Sprintf("/api/cart/items/%d", it.ID))
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.get("/api/cart")
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.CartCount != 0 {
		t.Fatalf("cart not empty after removal: %+v", c)
	}
}

func TestAddUnknownItem(t *testing.T) {
	s := newSession(t)

	resp := s.post("/api/cart/items/999999", nil)
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusNotFound)
}

func TestBuyNow(t *testing.T) {
	s := newSession(t)
	it := firstItem(t)

	resp := s.post(fmt.Sprintf("/api/cart/items/%d", it.ID), nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	resp = s.post(fmt.Sprintf("/api/cart/items/%d", it.ID), nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.post(fmt.Sprintf("/api/cart/buy-now/%d", it.ID), nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.get("/api/cart")
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(c.Items) != 1 || c.Items[0].Quantity != 1 {
		t.Fatalf("buy-now should leave exactly one unit, got %+v", c.Items)
	}
}

func TestCurrencySelection(t *testing.T) {
	s := newSession(t)
	it := firstItem(t)

	resp := s.post(fmt.Sprintf("/api/cart/items/%d", it.ID), nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.put("/api/cart/currency/eur")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.get("/api/cart")
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.Currency != "eur" {
		t.Fatalf("expected eur display currency, got %q", c.Currency)
	}

	// Unsupported codes are ignored; the selection sticks.
	resp = s.put("/api/cart/currency/xyz")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.get("/api/cart")
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.Currency != "eur" {
		t.Fatalf("invalid code overwrote the selection: %q", c.Currency)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a := newSession(t)
	b := newSession(t)
	it := firstItem(t)

	resp := a.post(fmt.Sprintf("/api/cart/items/%d", it.ID), nil)
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = b.get("/api/cart")
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.CartCount != 0 {
		t.Fatalf("session b sees session a's cart: %+v", c)
	}
}
