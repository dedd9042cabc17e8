package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ordersys/platform/internal/store/model"
)

// UserRepositoryInterface defines the data access the store service needs.
type UserRepositoryInterface interface {
	GetByUserUID(ctx context.Context, userUID string) (*model.User, error)
}

// PeerRequester is the outbound call shape satisfied by platform.PeerClient.
type PeerRequester interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

type orderResponse struct {
	OrderUID string `json:"orderUid"`
	ItemUID  string `json:"itemUid"`
	UserUID  string `json:"userUid"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

type purchaseResponse struct {
	OrderUID string `json:"orderUid"`
}

type warrantyForward struct {
	Reason string `json:"reason"`
}

type itemInfoResponse struct {
	Model string `json:"model"`
	Size  string `json:"size"`
}

type warrantyStatusResponse struct {
	ItemUID      string `json:"itemUid"`
	Status       string `json:"status"`
	WarrantyDate string `json:"warrantyDate"`
}

// StoreService implements the user gate and read-side aggregation of spec §4.5,
// plus the purchase/return/warranty pass-through façade of §6.
type StoreService struct {
	users     UserRepositoryInterface
	order     PeerRequester
	warehouse PeerRequester
	warranty  PeerRequester
	logger    zerolog.Logger
}

// NewStoreService creates a new StoreService.
func NewStoreService(users UserRepositoryInterface, order, warehouse, warranty PeerRequester, logger zerolog.Logger) *StoreService {
	return &StoreService{
		users:     users,
		order:     order,
		warehouse: warehouse,
		warranty:  warranty,
		logger:    logger.With().Str("component", "store_service").Logger(),
	}
}

func (s *StoreService) verifyUser(ctx context.Context, userUID string) error {
	_, err := s.users.GetByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("verify user: %w", err)
	}
	return nil
}

// Purchase verifies the user then delegates to Order's purchase saga.
func (s *StoreService) Purchase(ctx context.Context, userUID, modelName, size string) (string, error) {
	if err := s.verifyUser(ctx, userUID); err != nil {
		return "", err
	}

	var resp purchaseResponse
	if err := s.order.Do(ctx, http.MethodPost, "/api/v1/orders/"+userUID,
		map[string]string{"model": modelName, "size": size}, &resp); err != nil {
		return "", err
	}
	return resp.OrderUID, nil
}

// Refund verifies the user then delegates to Order's return saga.
func (s *StoreService) Refund(ctx context.Context, userUID, orderUID string) error {
	if err := s.verifyUser(ctx, userUID); err != nil {
		return err
	}
	return s.order.Do(ctx, http.MethodDelete, "/api/v1/orders/"+orderUID, nil, nil)
}

// RequestWarranty verifies the user then forwards the verdict request to Order.
func (s *StoreService) RequestWarranty(ctx context.Context, userUID, orderUID, reason string) (*model.WarrantyResponse, error) {
	if err := s.verifyUser(ctx, userUID); err != nil {
		return nil, err
	}

	var resp model.WarrantyResponse
	if err := s.order.Do(ctx, http.MethodPost, "/api/v1/orders/"+orderUID+"/warranty", warrantyForward{Reason: reason}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOrders implements spec §4.5 for the collection endpoint.
func (s *StoreService) ListOrders(ctx context.Context, userUID string) ([]model.OrderView, error) {
	if err := s.verifyUser(ctx, userUID); err != nil {
		return nil, err
	}

	var orders []orderResponse
	if err := s.order.Do(ctx, http.MethodGet, "/api/v1/orders/"+userUID, nil, &orders); err != nil {
		return nil, err
	}

	views := make([]model.OrderView, len(orders))
	var wg sync.WaitGroup
	for i, o := range orders {
		wg.Add(1)
		go func(i int, o orderResponse) {
			defer wg.Done()
			views[i] = s.aggregate(ctx, o)
		}(i, o)
	}
	wg.Wait()

	return views, nil
}

// GetOrder implements spec §4.5 for the single-order endpoint.
func (s *StoreService) GetOrder(ctx context.Context, userUID, orderUID string) (*model.OrderView, error) {
	if err := s.verifyUser(ctx, userUID); err != nil {
		return nil, err
	}

	var o orderResponse
	if err := s.order.Do(ctx, http.MethodGet, "/api/v1/orders/"+userUID+"/"+orderUID, nil, &o); err != nil {
		return nil, err
	}

	view := s.aggregate(ctx, o)
	return &view, nil
}

// aggregate fans out to Warehouse and Warranty for one order. Each call is
// best-effort: failures leave the corresponding fields unset rather than
// failing the whole view.
func (s *StoreService) aggregate(ctx context.Context, o orderResponse) model.OrderView {
	view := model.OrderView{OrderUID: o.OrderUID, Date: o.Date}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var info itemInfoResponse
		if err := s.warehouse.Do(ctx, http.MethodGet, "/api/v1/warehouse/"+o.ItemUID, nil, &info); err != nil {
			s.logger.Warn().Err(err).Str("order_uid", o.OrderUID).Msg("warehouse fan-out failed, omitting fields")
			return
		}
		view.Model = info.Model
		view.Size = info.Size
	}()

	go func() {
		defer wg.Done()
		var w warrantyStatusResponse
		if err := s.warranty.Do(ctx, http.MethodGet, "/api/v1/warranty/"+o.ItemUID, nil, &w); err != nil {
			s.logger.Warn().Err(err).Str("order_uid", o.OrderUID).Msg("warranty fan-out failed, omitting fields")
			return
		}
		view.WarrantyDate = w.WarrantyDate
		view.WarrantyStatus = w.Status
	}()

	wg.Wait()
	return view
}
