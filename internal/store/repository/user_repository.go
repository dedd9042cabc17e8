package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordersys/platform/internal/store/model"
	"github.com/ordersys/platform/internal/store/service"
	"github.com/ordersys/platform/pkg/database"
)

// UserRepository provides read-only data access for the local users table.
type UserRepository struct {
	pool database.TxQuerier
}

// NewUserRepository creates a new UserRepository with the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// NewUserRepositoryWithPool creates a UserRepository with a custom
// TxQuerier. This is primarily used for testing.
func NewUserRepositoryWithPool(pool database.TxQuerier) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByUserUID retrieves a user by user_uid.
// Returns service.ErrUserNotFound if no row exists.
func (r *UserRepository) GetByUserUID(ctx context.Context, userUID string) (*model.User, error) {
	query := `SELECT user_uid, name FROM users WHERE user_uid = $1`

	var u model.User
	err := r.pool.QueryRow(ctx, query, userUID).Scan(&u.UserUID, &u.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userUID, err)
	}
	return &u, nil
}
