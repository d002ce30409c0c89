package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

type orderStore struct {
	db *DB
}

func NewOrderStore(db *DB) application.OrderStore {
	return &orderStore{db: db}
}

func (s *orderStore) Put(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	contact, err := json.Marshal(order.Contact)
	if err != nil {
		return fmt.Errorf("failed to marshal order contact: %w", err)
	}

	query := `
		INSERT INTO orders (id, total_cents, items, contact, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = s.db.Pool.Exec(ctx, query, order.ID, order.TotalCents, items, contact, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to persist order: %w", err)
	}

	return nil
}

func (s *orderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, total_cents, items, contact, created_at
		FROM orders
		WHERE id = $1
	`

	var (
		order   domain.Order
		items   []byte
		contact []byte
	)

	err := s.db.Pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.TotalCents,
		&items,
		&contact,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewOrderNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(contact, &order.Contact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order contact: %w", err)
	}

	return &order, nil
}
