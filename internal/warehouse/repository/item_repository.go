package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordersys/platform/internal/warehouse/model"
	"github.com/ordersys/platform/internal/warehouse/service"
	"github.com/ordersys/platform/pkg/database"
)

// ItemRepository provides data access for items and order_items using pgx.
type ItemRepository struct {
	pool database.TxQuerier
}

// NewItemRepository creates a new ItemRepository with the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// GetByModelSizeForUpdate locks and returns the item row for (model, size).
// Must be called within a transaction; the lock is held until commit.
func (r *ItemRepository) GetByModelSizeForUpdate(ctx context.Context, tx database.TxQuerier, model_, size string) (*model.Item, error) {
	query := `SELECT id, model, size, available_count FROM items WHERE model = $1 AND size = $2 FOR UPDATE`

	var item model.Item
	err := tx.QueryRow(ctx, query, model_, size).Scan(&item.ID, &item.Model, &item.Size, &item.AvailableCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item for update %s/%s: %w", model_, size, err)
	}
	return &item, nil
}

// GetByID returns the item row by its surrogate id.
func (r *ItemRepository) GetByID(ctx context.Context, tx database.TxQuerier, itemID int) (*model.Item, error) {
	query := `SELECT id, model, size, available_count FROM items WHERE id = $1`

	var item model.Item
	err := tx.QueryRow(ctx, query, itemID).Scan(&item.ID, &item.Model, &item.Size, &item.AvailableCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item %d: %w", itemID, err)
	}
	return &item, nil
}

// SetAvailableCount updates the item's available_count.
func (r *ItemRepository) SetAvailableCount(ctx context.Context, tx database.TxQuerier, itemID, count int) error {
	_, err := tx.Exec(ctx, `UPDATE items SET available_count = $1 WHERE id = $2`, count, itemID)
	if err != nil {
		return fmt.Errorf("update item %d count: %w", itemID, err)
	}
	return nil
}

// GetOrderItemByOrderUID returns the order_items row for order_uid, locked
// for update, or nil if no row exists yet.
func (r *ItemRepository) GetOrderItemByOrderUID(ctx context.Context, tx database.TxQuerier, orderUID string) (*model.OrderItem, error) {
	query := `SELECT id, order_item_uid, order_uid, item_id, canceled FROM order_items WHERE order_uid = $1 FOR UPDATE`

	var oi model.OrderItem
	err := tx.QueryRow(ctx, query, orderUID).Scan(&oi.ID, &oi.OrderItemUID, &oi.OrderUID, &oi.ItemID, &oi.Canceled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order item by order_uid %s: %w", orderUID, err)
	}
	return &oi, nil
}

// GetByOrderItemUIDForUpdate locks and returns the order_items row for
// order_item_uid.
func (r *ItemRepository) GetByOrderItemUIDForUpdate(ctx context.Context, tx database.TxQuerier, orderItemUID string) (*model.OrderItem, error) {
	query := `SELECT id, order_item_uid, order_uid, item_id, canceled FROM order_items WHERE order_item_uid = $1 FOR UPDATE`

	var oi model.OrderItem
	err := tx.QueryRow(ctx, query, orderItemUID).Scan(&oi.ID, &oi.OrderItemUID, &oi.OrderUID, &oi.ItemID, &oi.Canceled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item %s: %w", orderItemUID, err)
	}
	return &oi, nil
}

// GetByOrderItemUID returns the order_items row for order_item_uid without
// locking, used for read-only lookups (info, warranty verdict resolution).
func (r *ItemRepository) GetByOrderItemUID(ctx context.Context, orderItemUID string) (*model.OrderItem, error) {
	query := `SELECT id, order_item_uid, order_uid, item_id, canceled FROM order_items WHERE order_item_uid = $1`

	var oi model.OrderItem
	err := r.pool.QueryRow(ctx, query, orderItemUID).Scan(&oi.ID, &oi.OrderItemUID, &oi.OrderUID, &oi.ItemID, &oi.Canceled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item %s: %w", orderItemUID, err)
	}
	return &oi, nil
}

// InsertOrderItem inserts a brand-new reservation row.
func (r *ItemRepository) InsertOrderItem(ctx context.Context, tx database.TxQuerier, orderItemUID, orderUID string, itemID int) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO order_items (order_item_uid, order_uid, item_id, canceled) VALUES ($1, $2, $3, false)`,
		orderItemUID, orderUID, itemID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// SetCanceled flips the canceled flag on an existing order_items row.
func (r *ItemRepository) SetCanceled(ctx context.Context, tx database.TxQuerier, orderItemUID string, canceled bool) error {
	_, err := tx.Exec(ctx, `UPDATE order_items SET canceled = $1 WHERE order_item_uid = $2`, canceled, orderItemUID)
	if err != nil {
		return fmt.Errorf("set canceled on order item %s: %w", orderItemUID, err)
	}
	return nil
}
