package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersys/platform/internal/warranty/model"
	"github.com/ordersys/platform/internal/warranty/service"
)

// mockRow implements pgx.Row for testing GetByItemUID.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockQuerier implements database.TxQuerier for testing WarrantyRepository.
type mockQuerier struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func TestWarrantyRepository_Enrol_VerifiesUpsert(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	err := repo.Enrol(context.Background(), "item-1", "2026-07-29")

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "ON CONFLICT (item_uid) DO UPDATE")
	assert.Equal(t, "item-1", capturedArgs[0])
	assert.Equal(t, model.StatusOnWarranty, capturedArgs[1])
	assert.Equal(t, "2026-07-29", capturedArgs[2])
}

func TestWarrantyRepository_Enrol_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection reset")
	mock := &mockQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	err := repo.Enrol(context.Background(), "item-1", "2026-07-29")

	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
}

func TestWarrantyRepository_Close_Success(t *testing.T) {
	mock := &mockQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	err := repo.Close(context.Background(), "item-1")

	require.NoError(t, err)
}

func TestWarrantyRepository_Close_NotFound(t *testing.T) {
	mock := &mockQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	err := repo.Close(context.Background(), "missing")

	assert.True(t, errors.Is(err, service.ErrWarrantyNotFound))
}

func TestWarrantyRepository_GetByItemUID_Success(t *testing.T) {
	mock := &mockQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*string)) = "item-1"
				*(dest[1].(*string)) = model.StatusOnWarranty
				*(dest[2].(*string)) = "2026-07-29"
				*(dest[3].(*string)) = "fine"
				return nil
			}}
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	w, err := repo.GetByItemUID(context.Background(), "item-1")

	require.NoError(t, err)
	assert.Equal(t, model.StatusOnWarranty, w.Status)
	assert.Equal(t, "fine", w.Comment)
}

func TestWarrantyRepository_GetByItemUID_NotFound(t *testing.T) {
	mock := &mockQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	w, err := repo.GetByItemUID(context.Background(), "missing")

	assert.Nil(t, w)
	assert.True(t, errors.Is(err, service.ErrWarrantyNotFound))
}

func TestWarrantyRepository_SetComment_VerifiesParameterizedQuery(t *testing.T) {
	var capturedArgs []any
	mock := &mockQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedArgs = arguments
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewWarrantyRepositoryWithPool(mock)
	err := repo.SetComment(context.Background(), "item-1", "user reported scratch")

	require.NoError(t, err)
	assert.Equal(t, "item-1", capturedArgs[0])
	assert.Equal(t, "user reported scratch", capturedArgs[1])
}

func TestNewWarrantyRepository_Production(t *testing.T) {
	repo := NewWarrantyRepository(nil)
	require.NotNil(t, repo)
}
