package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akarev/checkout-api/internal/domain/cart"
	"github.com/akarev/checkout-api/internal/domain/currency"
)

const (
	getSessionSQL = `SELECT cart, payment_currency, pending_order_id
		FROM cart_sessions WHERE id = $1`

	upsertSessionSQL = `INSERT INTO cart_sessions (id, cart, payment_currency, pending_order_id, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			cart = EXCLUDED.cart,
			payment_currency = EXCLUDED.payment_currency,
			pending_order_id = EXCLUDED.pending_order_id,
			updated_at = now()`
)

var _ cart.Store = (*SessionStore)(nil)

// SessionStore implements cart.Store backed by PostgreSQL, persisting the
// cart mapping as JSONB under the session id.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a SessionStore that uses the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Load fetches the session state for the given id. An unknown id yields a
// fresh empty session; sessions materialize in storage on first Save.
func (s *SessionStore) Load(ctx context.Context, id string) (*cart.Session, error) {
	var (
		cartJSON  []byte
		ccy       *string
		pendingID *int64
	)
	err := s.pool.QueryRow(ctx, getSessionSQL, id).Scan(&cartJSON, &ccy, &pendingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &cart.Session{ID: id, Cart: cart.New()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", id, err)
	}

	sess := &cart.Session{ID: id, Cart: cart.New()}
	if err := json.Unmarshal(cartJSON, &sess.Cart); err != nil {
		return nil, fmt.Errorf("decoding cart for session %q: %w", id, err)
	}
	if ccy != nil {
		if c, err := currency.Parse(*ccy); err == nil {
			sess.PaymentCurrency = c
		}
	}
	if pendingID != nil {
		sess.PendingOrderID = *pendingID
	}
	return sess, nil
}

// Save upserts the session state.
func (s *SessionStore) Save(ctx context.Context, sess *cart.Session) error {
	cartJSON, err := json.Marshal(sess.Cart)
	if err != nil {
		return fmt.Errorf("encoding cart for session %q: %w", sess.ID, err)
	}

	var ccy *string
	if sess.PaymentCurrency != "" {
		v := sess.PaymentCurrency.String()
		ccy = &v
	}
	var pendingID *int64
	if sess.PendingOrderID != 0 {
		pendingID = &sess.PendingOrderID
	}

	if _, err := s.pool.Exec(ctx, upsertSessionSQL, sess.ID, cartJSON, ccy, pendingID); err != nil {
		return fmt.Errorf("saving session %q: %w", sess.ID, err)
	}
	return nil
}
