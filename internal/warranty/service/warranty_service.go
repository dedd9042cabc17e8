package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ordersys/platform/internal/warranty/model"
)

// WarrantyRepositoryInterface defines the data access the warranty service needs.
type WarrantyRepositoryInterface interface {
	Enrol(ctx context.Context, itemUID, warrantyDate string) error
	Close(ctx context.Context, itemUID string) error
	GetByItemUID(ctx context.Context, itemUID string) (*model.Warranty, error)
	SetComment(ctx context.Context, itemUID, comment string) error
}

// WarrantyService implements the per-item warranty lifecycle and verdict
// logic of spec §4.7.
type WarrantyService struct {
	repo   WarrantyRepositoryInterface
	logger zerolog.Logger
}

// NewWarrantyService creates a new WarrantyService.
func NewWarrantyService(repo WarrantyRepositoryInterface, logger zerolog.Logger) *WarrantyService {
	return &WarrantyService{repo: repo, logger: logger.With().Str("component", "warranty_service").Logger()}
}

// Enrol starts warranty coverage for item_uid. Idempotent: re-enrolling an
// item already on warranty resets its warranty_date.
func (s *WarrantyService) Enrol(ctx context.Context, itemUID string) error {
	warrantyDate := time.Now().UTC().Format("2006-01-02")
	if err := s.repo.Enrol(ctx, itemUID, warrantyDate); err != nil {
		return fmt.Errorf("enrol: %w", err)
	}
	s.logger.Info().Str("item_uid", itemUID).Msg("warranty enrolled")
	return nil
}

// Close removes item_uid from warranty coverage.
func (s *WarrantyService) Close(ctx context.Context, itemUID string) error {
	if err := s.repo.Close(ctx, itemUID); err != nil {
		if errors.Is(err, ErrWarrantyNotFound) {
			return ErrWarrantyNotFound
		}
		return fmt.Errorf("close: %w", err)
	}
	s.logger.Info().Str("item_uid", itemUID).Msg("warranty closed")
	return nil
}

// Get returns the warranty record for item_uid.
func (s *WarrantyService) Get(ctx context.Context, itemUID string) (*model.Warranty, error) {
	w, err := s.repo.GetByItemUID(ctx, itemUID)
	if err != nil {
		if errors.Is(err, ErrWarrantyNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("get: %w", err)
	}
	return w, nil
}

// RequestVerdict implements spec §4.7:
//   - REFUSED if warranty status != ON_WARRANTY;
//   - RETURN if availableCount > 0;
//   - FIXING otherwise.
func (s *WarrantyService) RequestVerdict(ctx context.Context, itemUID string, availableCount int, reason string) (*model.VerdictResponse, error) {
	w, err := s.repo.GetByItemUID(ctx, itemUID)
	if err != nil {
		if errors.Is(err, ErrWarrantyNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("get for verdict: %w", err)
	}

	if err := s.repo.SetComment(ctx, itemUID, reason); err != nil {
		return nil, fmt.Errorf("set comment: %w", err)
	}

	decision := model.VerdictFixing
	switch {
	case w.Status != model.StatusOnWarranty:
		decision = model.VerdictRefused
	case availableCount > 0:
		decision = model.VerdictReturn
	}

	s.logger.Info().Str("item_uid", itemUID).Str("decision", decision).Msg("warranty verdict issued")
	return &model.VerdictResponse{Decision: decision, WarrantyDate: w.WarrantyDate}, nil
}
