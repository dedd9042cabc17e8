//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "github.com/ordersys/platform/internal/order/model"
	orderrepo "github.com/ordersys/platform/internal/order/repository"
	orderservice "github.com/ordersys/platform/internal/order/service"
	"github.com/ordersys/platform/internal/platform"
	warehouserepo "github.com/ordersys/platform/internal/warehouse/repository"
	whservice "github.com/ordersys/platform/internal/warehouse/service"
	warrantyrepo "github.com/ordersys/platform/internal/warranty/repository"
	wrservice "github.com/ordersys/platform/internal/warranty/service"
)

func noopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newHarness(t *testing.T, warehouseDown, warrantyDown bool) (*orderservice.OrderService, *whservice.ItemService, *wrservice.WarrantyService) {
	t.Helper()

	warrantyRepo := warrantyrepo.NewWarrantyRepository(testPool)
	warrantySvc := wrservice.NewWarrantyService(warrantyRepo, noopLogger())

	itemRepo := warehouserepo.NewItemRepository(testPool)
	itemSvc := whservice.NewItemService(testPool, itemRepo, &warrantyAdapter{svc: warrantySvc}, noopLogger())

	orderRepo := orderrepo.NewOrderRepository(testPool)
	wh := &warehouseAdapter{svc: itemSvc, down: warehouseDown}
	wr := &warrantyAdapter{svc: warrantySvc, down: warrantyDown}
	orderSvc := orderservice.NewOrderService(orderRepo, wh, wr, nil, nil, noopLogger())

	return orderSvc, itemSvc, warrantySvc
}

// TestPurchase_Happy implements spec §8 scenario 1: stock decrements,
// warranty is established, and the order lands PAID.
func TestPurchase_Happy(t *testing.T) {
	cleanupTables(t)
	seedItem(t, "tesla-model-s", "xl", 1)
	orderSvc, _, warrantySvc := newHarness(t, false, false)

	ctx := context.Background()
	userUID := "11111111-1111-1111-1111-111111111111"

	orderUID, err := orderSvc.Purchase(ctx, userUID, "tesla-model-s", "xl")
	require.NoError(t, err)
	require.NotEmpty(t, orderUID)

	assert.Equal(t, 0, itemAvailableCount(t, "tesla-model-s", "xl"))

	order, err := orderSvc.Get(ctx, orderUID)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusPaid, order.Status)

	warranty, err := warrantySvc.Get(ctx, order.ItemUID)
	require.NoError(t, err)
	assert.Equal(t, "ON_WARRANTY", warranty.Status)
}

// TestPurchase_OutOfStock implements spec §8 scenario 2: the purchase fails
// with ErrItemNotAvailable and the count stays unchanged.
func TestPurchase_OutOfStock(t *testing.T) {
	cleanupTables(t)
	seedItem(t, "tesla-model-s", "xl", 0)
	orderSvc, _, _ := newHarness(t, false, false)

	ctx := context.Background()
	_, err := orderSvc.Purchase(ctx, "11111111-1111-1111-1111-111111111111", "tesla-model-s", "xl")

	require.ErrorIs(t, err, orderservice.ErrItemNotAvailable)
	assert.Equal(t, 0, itemAvailableCount(t, "tesla-model-s", "xl"))
}

// TestPurchase_WarrantyDownNoQueue implements spec §8 scenario 4: with the
// deferred queue disabled, a warranty failure surfaces as the warranty
// AccessError and is compensated synchronously by releasing the stock.
func TestPurchase_WarrantyDownNoQueue(t *testing.T) {
	cleanupTables(t)
	seedItem(t, "tesla-model-s", "xl", 1)
	orderSvc, _, _ := newHarness(t, false, true)

	ctx := context.Background()
	_, err := orderSvc.Purchase(ctx, "11111111-1111-1111-1111-111111111111", "tesla-model-s", "xl")

	var accessErr *platform.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "warranty", accessErr.Peer)

	assert.Equal(t, 1, itemAvailableCount(t, "tesla-model-s", "xl"), "compensation must release the reserved stock")
}

// TestRefund_Happy implements spec §8 scenario 5.
func TestRefund_Happy(t *testing.T) {
	cleanupTables(t)
	seedItem(t, "tesla-model-s", "xl", 1)
	orderSvc, _, warrantySvc := newHarness(t, false, false)
	ctx := context.Background()

	orderUID, err := orderSvc.Purchase(ctx, "11111111-1111-1111-1111-111111111111", "tesla-model-s", "xl")
	require.NoError(t, err)

	require.NoError(t, orderSvc.Refund(ctx, orderUID))

	assert.Equal(t, 1, itemAvailableCount(t, "tesla-model-s", "xl"))

	order, err := orderSvc.Get(ctx, orderUID)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusCanceled, order.Status)

	warranty, err := warrantySvc.Get(ctx, order.ItemUID)
	require.NoError(t, err)
	assert.Equal(t, "REMOVED_FROM_WARRANTY", warranty.Status)
}

// TestRefund_WarrantyFailureCompensates implements spec §8 scenario 6: a
// warranty-close failure after a successful warehouse release re-reserves
// the stock, leaves the order PAID, and surfaces the warranty error.
func TestRefund_WarrantyFailureCompensates(t *testing.T) {
	cleanupTables(t)
	seedItem(t, "tesla-model-s", "xl", 1)
	orderSvc, _, _ := newHarness(t, false, false)
	ctx := context.Background()

	orderUID, err := orderSvc.Purchase(ctx, "11111111-1111-1111-1111-111111111111", "tesla-model-s", "xl")
	require.NoError(t, err)

	// Flip warranty down only after the purchase has already enrolled it,
	// so the refund's warranty-close call is the one that fails.
	orderSvcDown, _, _ := newHarness(t, false, true)
	err = orderSvcDown.Refund(ctx, orderUID)

	var accessErr *platform.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "warranty", accessErr.Peer)

	assert.Equal(t, 0, itemAvailableCount(t, "tesla-model-s", "xl"), "compensation must re-reserve the released stock")

	order, err := orderSvc.Get(ctx, orderUID)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusPaid, order.Status, "order must remain PAID when refund fails")
}

// TestWarehouseReserve_IdempotentPerOrderUID implements spec §8's invariant:
// N successive reserves with the same order_uid produce N count decrements
// and exactly one row whose canceled ends up false.
func TestWarehouseReserve_IdempotentPerOrderUID(t *testing.T) {
	cleanupTables(t)
	seedItem(t, "tesla-model-s", "xl", 5)
	_, itemSvc, _ := newHarness(t, false, false)
	ctx := context.Background()

	orderUID := "22222222-2222-2222-2222-222222222222"

	var firstUID string
	for i := 0; i < 3; i++ {
		oi, err := itemSvc.Reserve(ctx, orderUID, "tesla-model-s", "xl")
		require.NoError(t, err)
		if i == 0 {
			firstUID = oi.OrderItemUID
		} else {
			assert.Equal(t, firstUID, oi.OrderItemUID, "reserve must reactivate the same row, not insert a new one")
		}
	}

	assert.Equal(t, 2, itemAvailableCount(t, "tesla-model-s", "xl"), "three reserves against a count of 5 decrement three times")

	var rowCount int
	err := testPool.QueryRow(ctx, `SELECT count(*) FROM order_items WHERE order_uid = $1`, orderUID).Scan(&rowCount)
	require.NoError(t, err)
	assert.Equal(t, 1, rowCount, "idempotent reserve must never insert a second row for the same order_uid")

	var canceled bool
	err = testPool.QueryRow(ctx, `SELECT canceled FROM order_items WHERE order_uid = $1`, orderUID).Scan(&canceled)
	require.NoError(t, err)
	assert.False(t, canceled)
}

// TestPurchase_ItemNotFound covers the 404 classification path.
func TestPurchase_ItemNotFound(t *testing.T) {
	cleanupTables(t)
	orderSvc, _, _ := newHarness(t, false, false)

	_, err := orderSvc.Purchase(context.Background(), "11111111-1111-1111-1111-111111111111", "nonexistent", "xl")
	require.True(t, errors.Is(err, orderservice.ErrItemNotFound))
}
