package localstore

import (
	"database/sql"
	"errors"
	"fmt"
)

// SavePendingOrder persists the parameters of an order awaiting payment so
// they survive the full-page redirect to the payment provider. Saving the
// same order id again replaces the payload.
func (s *Store) SavePendingOrder(orderID string, payload []byte) error {
	if orderID == "" {
		return errors.New("order_id is required")
	}
	_, err := s.db.Exec(
		`INSERT INTO pending_orders (order_id, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET payload = excluded.payload`,
		orderID, string(payload), nowUnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save pending order %q: %w", orderID, err)
	}
	return nil
}

// PendingOrder returns the persisted parameters for orderID, or ErrNotFound.
func (s *Store) PendingOrder(orderID string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM pending_orders WHERE order_id = ?`, orderID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pending order %q: %w", orderID, err)
	}
	return []byte(payload), nil
}

// DeletePendingOrder discards the persisted parameters for orderID.
// Deleting a missing order is not an error.
func (s *Store) DeletePendingOrder(orderID string) error {
	if _, err := s.db.Exec(`DELETE FROM pending_orders WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("delete pending order %q: %w", orderID, err)
	}
	return nil
}
