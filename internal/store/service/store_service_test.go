package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersys/platform/internal/store/model"
)

// mockUserRepository is a mock implementation of UserRepositoryInterface.
type mockUserRepository struct {
	getByUserUIDFn func(ctx context.Context, userUID string) (*model.User, error)
}

func (m *mockUserRepository) GetByUserUID(ctx context.Context, userUID string) (*model.User, error) {
	if m.getByUserUIDFn != nil {
		return m.getByUserUIDFn(ctx, userUID)
	}
	return nil, nil
}

// mockPeer is a mock implementation of PeerRequester, reused for Order,
// Warehouse, and Warranty.
type mockPeer struct {
	doFn func(ctx context.Context, method, path string, body, out any) error
}

func (m *mockPeer) Do(ctx context.Context, method, path string, body, out any) error {
	if m.doFn != nil {
		return m.doFn(ctx, method, path, body, out)
	}
	return nil
}

func decodeInto(body any, out any) {
	b, _ := json.Marshal(body)
	_ = json.Unmarshal(b, out)
}

func existingUser() *mockUserRepository {
	return &mockUserRepository{
		getByUserUIDFn: func(ctx context.Context, userUID string) (*model.User, error) {
			return &model.User{UserUID: userUID, Name: "Ada"}, nil
		},
	}
}

func TestStoreService_Purchase_UserNotFound(t *testing.T) {
	users := &mockUserRepository{
		getByUserUIDFn: func(ctx context.Context, userUID string) (*model.User, error) {
			return nil, ErrUserNotFound
		},
	}

	svc := NewStoreService(users, &mockPeer{}, &mockPeer{}, &mockPeer{}, zerolog.Nop())
	_, err := svc.Purchase(context.Background(), "missing-user", "wf_boots", "40")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestStoreService_Purchase_Success(t *testing.T) {
	order := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			decodeInto(map[string]string{"orderUid": "order-uid-1"}, out)
			return nil
		},
	}

	svc := NewStoreService(existingUser(), order, &mockPeer{}, &mockPeer{}, zerolog.Nop())
	orderUID, err := svc.Purchase(context.Background(), "user-1", "wf_boots", "40")

	require.NoError(t, err)
	assert.Equal(t, "order-uid-1", orderUID)
}

func TestStoreService_ListOrders_AggregatesBestEffort(t *testing.T) {
	order := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			decodeInto([]map[string]string{
				{"orderUid": "order-1", "itemUid": "item-1", "date": "2026-07-29"},
			}, out)
			return nil
		},
	}
	warehouse := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			decodeInto(map[string]string{"model": "wf_boots", "size": "40"}, out)
			return nil
		},
	}
	warranty := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			return errors.New("warranty down")
		},
	}

	svc := NewStoreService(existingUser(), order, warehouse, warranty, zerolog.Nop())
	views, err := svc.ListOrders(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "wf_boots", views[0].Model)
	assert.Empty(t, views[0].WarrantyStatus, "warranty fields should be omitted on fan-out failure")
}

func TestStoreService_GetOrder_Success(t *testing.T) {
	order := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			decodeInto(map[string]string{"orderUid": "order-1", "itemUid": "item-1", "date": "2026-07-29"}, out)
			return nil
		},
	}
	warehouse := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			decodeInto(map[string]string{"model": "wf_boots", "size": "40"}, out)
			return nil
		},
	}
	warranty := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			decodeInto(map[string]string{"itemUid": "item-1", "status": "ON_WARRANTY", "warrantyDate": "2026-07-29"}, out)
			return nil
		},
	}

	svc := NewStoreService(existingUser(), order, warehouse, warranty, zerolog.Nop())
	view, err := svc.GetOrder(context.Background(), "user-1", "order-1")

	require.NoError(t, err)
	assert.Equal(t, "wf_boots", view.Model)
	assert.Equal(t, "ON_WARRANTY", view.WarrantyStatus)
}

func TestStoreService_Refund_Success(t *testing.T) {
	refundCalled := false
	order := &mockPeer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			refundCalled = true
			return nil
		},
	}

	svc := NewStoreService(existingUser(), order, &mockPeer{}, &mockPeer{}, zerolog.Nop())
	err := svc.Refund(context.Background(), "user-1", "order-1")

	require.NoError(t, err)
	assert.True(t, refundCalled)
}
