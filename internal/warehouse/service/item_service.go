package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ordersys/platform/internal/platform"
	"github.com/ordersys/platform/internal/warehouse/model"
	"github.com/ordersys/platform/pkg/database"
)

// ItemRepositoryInterface defines the data access the item service needs.
type ItemRepositoryInterface interface {
	GetByModelSizeForUpdate(ctx context.Context, tx database.TxQuerier, model, size string) (*model.Item, error)
	GetByID(ctx context.Context, tx database.TxQuerier, itemID int) (*model.Item, error)
	SetAvailableCount(ctx context.Context, tx database.TxQuerier, itemID, count int) error
	GetOrderItemByOrderUID(ctx context.Context, tx database.TxQuerier, orderUID string) (*model.OrderItem, error)
	GetByOrderItemUIDForUpdate(ctx context.Context, tx database.TxQuerier, orderItemUID string) (*model.OrderItem, error)
	GetByOrderItemUID(ctx context.Context, orderItemUID string) (*model.OrderItem, error)
	InsertOrderItem(ctx context.Context, tx database.TxQuerier, orderItemUID, orderUID string, itemID int) error
	SetCanceled(ctx context.Context, tx database.TxQuerier, orderItemUID string, canceled bool) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PoolBeginner is satisfied by *pgxpool.Pool in production: it can both
// begin transactions and run standalone queries outside one.
type PoolBeginner interface {
	TxBeginner
	database.TxQuerier
}

// WarrantyVerdictRequester is the outbound call the warranty-verdict
// endpoint forwards to, satisfied by platform.PeerClient.
type WarrantyVerdictRequester interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// ItemService implements the Warehouse reserve/release/verdict logic of
// spec §4.6/§4.7.
type ItemService struct {
	pool     PoolBeginner
	items    ItemRepositoryInterface
	warranty WarrantyVerdictRequester
	logger   zerolog.Logger
}

// NewItemService creates a new ItemService.
func NewItemService(pool *pgxpool.Pool, items ItemRepositoryInterface, warranty WarrantyVerdictRequester, logger zerolog.Logger) *ItemService {
	return &ItemService{pool: pool, items: items, warranty: warranty, logger: logger.With().Str("component", "item_service").Logger()}
}

// NewItemServiceWithPool is primarily used for testing.
func NewItemServiceWithPool(pool PoolBeginner, items ItemRepositoryInterface, warranty WarrantyVerdictRequester, logger zerolog.Logger) *ItemService {
	return &ItemService{pool: pool, items: items, warranty: warranty, logger: logger.With().Str("component", "item_service").Logger()}
}

// Reserve implements spec §4.6 Reserve: idempotent per order_uid.
func (s *ItemService) Reserve(ctx context.Context, orderUID, modelName, size string) (*model.OrderItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	item, err := s.items.GetByModelSizeForUpdate(ctx, tx, modelName, size)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	if item.AvailableCount <= 0 {
		return nil, ErrItemNotAvailable
	}

	if err := s.items.SetAvailableCount(ctx, tx, item.ID, item.AvailableCount-1); err != nil {
		return nil, fmt.Errorf("decrement count: %w", err)
	}

	existing, err := s.items.GetOrderItemByOrderUID(ctx, tx, orderUID)
	if err != nil {
		return nil, fmt.Errorf("get existing order item: %w", err)
	}

	var orderItemUID string
	if existing != nil {
		orderItemUID = existing.OrderItemUID
		if err := s.items.SetCanceled(ctx, tx, orderItemUID, false); err != nil {
			return nil, fmt.Errorf("reactivate order item: %w", err)
		}
	} else {
		orderItemUID = platform.NewUUID()
		if err := s.items.InsertOrderItem(ctx, tx, orderItemUID, orderUID, item.ID); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reserve: %w", err)
	}

	s.logger.Info().
		Str("order_uid", orderUID).
		Str("order_item_uid", orderItemUID).
		Str("model", modelName).
		Str("size", size).
		Msg("item reserved")

	return &model.OrderItem{OrderItemUID: orderItemUID, OrderUID: orderUID, ItemID: item.ID}, nil
}

// Release implements spec §4.6 Release.
func (s *ItemService) Release(ctx context.Context, orderItemUID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	oi, err := s.items.GetByOrderItemUIDForUpdate(ctx, tx, orderItemUID)
	if err != nil {
		if errors.Is(err, ErrOrderItemNotFound) {
			return ErrOrderItemNotFound
		}
		return fmt.Errorf("get order item: %w", err)
	}

	if err := s.items.SetCanceled(ctx, tx, orderItemUID, true); err != nil {
		return fmt.Errorf("cancel order item: %w", err)
	}

	item, err := s.items.GetByID(ctx, tx, oi.ItemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	if err := s.items.SetAvailableCount(ctx, tx, item.ID, item.AvailableCount+1); err != nil {
		return fmt.Errorf("increment count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}

	s.logger.Info().Str("order_item_uid", orderItemUID).Msg("item released")
	return nil
}

// Info returns the model/size for an order_item_uid.
func (s *ItemService) Info(ctx context.Context, orderItemUID string) (*model.Item, error) {
	oi, err := s.items.GetByOrderItemUID(ctx, orderItemUID)
	if err != nil {
		if errors.Is(err, ErrOrderItemNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	item, err := s.items.GetByID(ctx, s.pool, oi.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// WarrantyVerdictResult is the decision Warehouse returns after resolving
// available_count and forwarding to Warranty.
type WarrantyVerdictResult struct {
	Decision     string
	WarrantyDate string
}

type warrantyVerdictRequest struct {
	AvailableCount int    `json:"availableCount"`
	Reason         string `json:"reason"`
}

// RequestWarrantyVerdict implements spec §4.7: resolve order_item_uid ->
// item.available_count, forward to Warranty, and return its verdict.
func (s *ItemService) RequestWarrantyVerdict(ctx context.Context, orderItemUID, reason string) (*WarrantyVerdictResult, error) {
	oi, err := s.items.GetByOrderItemUID(ctx, orderItemUID)
	if err != nil {
		if errors.Is(err, ErrOrderItemNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	item, err := s.items.GetByID(ctx, s.pool, oi.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var resp WarrantyVerdictResult
	err = s.warranty.Do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/warranty/%s/warranty", orderItemUID),
		warrantyVerdictRequest{AvailableCount: item.AvailableCount, Reason: reason}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
