package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordersys/platform/internal/order/model"
	"github.com/ordersys/platform/internal/order/service"
	"github.com/ordersys/platform/pkg/database"
)

// OrderRepository provides data access for orders using pgx.
type OrderRepository struct {
	pool database.TxQuerier
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates an OrderRepository with a custom
// TxQuerier. This is primarily used for testing.
func NewOrderRepositoryWithPool(pool database.TxQuerier) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert creates a new order row with status PAID.
func (r *OrderRepository) Insert(ctx context.Context, orderUID, itemUID, userUID, date string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO orders (order_uid, item_uid, user_uid, status, order_date) VALUES ($1, $2, $3, $4, $5)`,
		orderUID, itemUID, userUID, model.StatusPaid, date)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", orderUID, err)
	}
	return nil
}

// GetByOrderUID retrieves an order by order_uid.
// Returns service.ErrOrderNotFound if no row exists.
func (r *OrderRepository) GetByOrderUID(ctx context.Context, orderUID string) (*model.Order, error) {
	query := `SELECT order_uid, item_uid, user_uid, status, order_date FROM orders WHERE order_uid = $1`

	var o model.Order
	err := r.pool.QueryRow(ctx, query, orderUID).Scan(&o.OrderUID, &o.ItemUID, &o.UserUID, &o.Status, &o.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", orderUID, err)
	}
	return &o, nil
}

// ListByUserUID retrieves every order placed by user_uid.
func (r *OrderRepository) ListByUserUID(ctx context.Context, userUID string) ([]*model.Order, error) {
	query := `SELECT order_uid, item_uid, user_uid, status, order_date FROM orders WHERE user_uid = $1 ORDER BY order_date DESC`

	rows, err := r.pool.Query(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", userUID, err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.OrderUID, &o.ItemUID, &o.UserUID, &o.Status, &o.Date); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

// SetStatus updates an order's status, used to move PAID -> CANCELED.
func (r *OrderRepository) SetStatus(ctx context.Context, orderUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE order_uid = $1`, orderUID, status)
	if err != nil {
		return fmt.Errorf("set status for %s: %w", orderUID, err)
	}
	return nil
}
