package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordersys/platform/internal/warranty/model"
	"github.com/ordersys/platform/internal/warranty/service"
	"github.com/ordersys/platform/pkg/database"
)

// WarrantyRepository provides data access for warranty rows using pgx.
type WarrantyRepository struct {
	pool database.TxQuerier
}

// NewWarrantyRepository creates a new WarrantyRepository with the given pool.
func NewWarrantyRepository(pool *pgxpool.Pool) *WarrantyRepository {
	return &WarrantyRepository{pool: pool}
}

// NewWarrantyRepositoryWithPool creates a WarrantyRepository with a custom
// TxQuerier. This is primarily used for testing.
func NewWarrantyRepositoryWithPool(pool database.TxQuerier) *WarrantyRepository {
	return &WarrantyRepository{pool: pool}
}

// Enrol inserts a warranty row for item_uid, or reactivates it if one
// already exists. Enrolment is idempotent per item_uid: a second enrol for
// the same item resets status to ON_WARRANTY rather than producing a
// duplicate row.
func (r *WarrantyRepository) Enrol(ctx context.Context, itemUID, warrantyDate string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO warranty (item_uid, status, warranty_date, comment)
		 VALUES ($1, $2, $3, '')
		 ON CONFLICT (item_uid) DO UPDATE SET status = $2, warranty_date = $3`,
		itemUID, model.StatusOnWarranty, warrantyDate)
	if err != nil {
		return fmt.Errorf("enrol warranty for %s: %w", itemUID, err)
	}
	return nil
}

// Close marks the warranty row for item_uid as removed from warranty.
// Returns service.ErrWarrantyNotFound if no row exists.
func (r *WarrantyRepository) Close(ctx context.Context, itemUID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE warranty SET status = $2 WHERE item_uid = $1`,
		itemUID, model.StatusRemovedFromWarranty)
	if err != nil {
		return fmt.Errorf("close warranty for %s: %w", itemUID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrWarrantyNotFound
	}
	return nil
}

// GetByItemUID retrieves a warranty row by item_uid.
// Returns service.ErrWarrantyNotFound if no row exists.
func (r *WarrantyRepository) GetByItemUID(ctx context.Context, itemUID string) (*model.Warranty, error) {
	query := `SELECT item_uid, status, warranty_date, comment FROM warranty WHERE item_uid = $1`

	var w model.Warranty
	err := r.pool.QueryRow(ctx, query, itemUID).Scan(&w.ItemUID, &w.Status, &w.WarrantyDate, &w.Comment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("get warranty by item_uid %s: %w", itemUID, err)
	}
	return &w, nil
}

// SetComment updates the free-text comment attached to a warranty row,
// used to record the reason supplied on a verdict request.
func (r *WarrantyRepository) SetComment(ctx context.Context, itemUID, comment string) error {
	_, err := r.pool.Exec(ctx, `UPDATE warranty SET comment = $2 WHERE item_uid = $1`, itemUID, comment)
	if err != nil {
		return fmt.Errorf("set comment for %s: %w", itemUID, err)
	}
	return nil
}
