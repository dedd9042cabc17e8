package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ordersys/platform/internal/order/model"
	"github.com/ordersys/platform/internal/platform"
)

// OrderRepositoryInterface defines the data access the order service needs.
type OrderRepositoryInterface interface {
	Insert(ctx context.Context, orderUID, itemUID, userUID, date string) error
	GetByOrderUID(ctx context.Context, orderUID string) (*model.Order, error)
	ListByUserUID(ctx context.Context, userUID string) ([]*model.Order, error)
	SetStatus(ctx context.Context, orderUID, status string) error
}

// PeerRequester is the outbound call shape satisfied by platform.PeerClient,
// implemented separately for the Warehouse and Warranty peers.
type PeerRequester interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// QueuePublisher enqueues an item_uid for deferred warranty enrolment.
type QueuePublisher interface {
	Publish(itemUID string) error
}

// DeferredWorker starts the singleton background consumer the first time
// the purchase saga needs it. It takes no context: the worker runs under
// its own process-lifetime context fixed at construction, independent of
// whichever request first triggers EnsureStarted (spec §4.4/§9).
type DeferredWorker interface {
	EnsureStarted()
}

type reserveResponse struct {
	Model        string `json:"model"`
	OrderItemUID string `json:"orderItemUid"`
	OrderUID     string `json:"orderUid"`
	Size         string `json:"size"`
}

type itemInfoResponse struct {
	Model string `json:"model"`
	Size  string `json:"size"`
}

type warehouseWarrantyRequest struct {
	Reason string `json:"reason"`
}

type warehouseWarrantyResponse struct {
	Decision     string `json:"decision"`
	WarrantyDate string `json:"warrantyDate"`
}

// OrderService implements the purchase and return sagas of spec §4.1/§4.2.
type OrderService struct {
	orders       OrderRepositoryInterface
	warehouse    PeerRequester
	warranty     PeerRequester
	publisher    QueuePublisher
	worker       DeferredWorker
	queueEnabled bool
	logger       zerolog.Logger
}

// NewOrderService creates a new OrderService. publisher and worker may both
// be nil, in which case the deferred-queue path is disabled and warranty
// enrolment failures are always compensated synchronously.
func NewOrderService(orders OrderRepositoryInterface, warehouse, warranty PeerRequester, publisher QueuePublisher, worker DeferredWorker, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:       orders,
		warehouse:    warehouse,
		warranty:     warranty,
		publisher:    publisher,
		worker:       worker,
		queueEnabled: publisher != nil && worker != nil,
		logger:       logger.With().Str("component", "order_service").Logger(),
	}
}

// Purchase implements spec §4.1.
func (s *OrderService) Purchase(ctx context.Context, userUID, modelName, size string) (string, error) {
	orderUID := platform.NewUUID()

	var reserved reserveResponse
	err := s.warehouse.Do(ctx, http.MethodPost, "/api/v1/warehouse",
		map[string]string{"orderUid": orderUID, "model": modelName, "size": size}, &reserved)
	if err != nil {
		return "", classifyWarehouseError(err)
	}

	enrolErr := s.warranty.Do(ctx, http.MethodPost, "/api/v1/warranty/"+reserved.OrderItemUID, nil, nil)
	if enrolErr != nil {
		if s.queueEnabled {
			if pubErr := s.publisher.Publish(reserved.OrderItemUID); pubErr != nil {
				s.logger.Error().Err(pubErr).Str("order_item_uid", reserved.OrderItemUID).
					Msg("failed to enqueue deferred enrolment, compensating reserve")
				s.compensateReserve(ctx, reserved.OrderItemUID)
				return "", enrolErr
			}
			s.worker.EnsureStarted()
			s.logger.Info().Str("order_item_uid", reserved.OrderItemUID).
				Msg("warranty enrolment deferred to queue")
		} else {
			s.compensateReserve(ctx, reserved.OrderItemUID)
			return "", enrolErr
		}
	}

	date := time.Now().UTC().Format(time.RFC3339)
	if err := s.orders.Insert(ctx, orderUID, reserved.OrderItemUID, userUID, date); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	s.logger.Info().Str("order_uid", orderUID).Str("user_uid", userUID).Msg("purchase completed")
	return orderUID, nil
}

// compensateReserve releases stock reserved earlier in the purchase saga.
// Its own failure is swallowed: the caller always surfaces the original
// warranty error, per spec §4.1.
func (s *OrderService) compensateReserve(ctx context.Context, orderItemUID string) {
	if err := s.warehouse.Do(ctx, http.MethodDelete, "/api/v1/warehouse/"+orderItemUID, nil, nil); err != nil {
		s.logger.Error().Err(err).Str("order_item_uid", orderItemUID).Msg("compensation release failed, stock leaked")
	}
}

// Refund implements spec §4.2, the return saga.
func (s *OrderService) Refund(ctx context.Context, orderUID string) error {
	order, err := s.orders.GetByOrderUID(ctx, orderUID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("load order: %w", err)
	}

	if err := s.warehouse.Do(ctx, http.MethodDelete, "/api/v1/warehouse/"+order.ItemUID, nil, nil); err != nil {
		return classifyWarehouseError(err)
	}

	warrantyErr := s.warranty.Do(ctx, http.MethodDelete, "/api/v1/warranty/"+order.ItemUID, nil, nil)
	if warrantyErr != nil {
		if compErr := s.compensateRelease(ctx, order); compErr != nil {
			return classifyWarehouseError(compErr)
		}
		return warrantyErr
	}

	if err := s.orders.SetStatus(ctx, orderUID, model.StatusCanceled); err != nil {
		return fmt.Errorf("set status canceled: %w", err)
	}

	s.logger.Info().Str("order_uid", orderUID).Msg("refund completed")
	return nil
}

// compensateRelease re-reserves the stock this saga just released, used
// when closing warranty fails after a successful warehouse release.
func (s *OrderService) compensateRelease(ctx context.Context, order *model.Order) error {
	var info itemInfoResponse
	if err := s.warehouse.Do(ctx, http.MethodGet, "/api/v1/warehouse/"+order.ItemUID, nil, &info); err != nil {
		return err
	}
	var reserved reserveResponse
	return s.warehouse.Do(ctx, http.MethodPost, "/api/v1/warehouse",
		map[string]string{"orderUid": order.OrderUID, "model": info.Model, "size": info.Size}, &reserved)
}

// RequestWarranty implements the Order surface of spec §4.7: it forwards to
// Warehouse, which resolves available_count and relays to Warranty.
func (s *OrderService) RequestWarranty(ctx context.Context, orderUID, reason string) (*model.WarrantyResponse, error) {
	order, err := s.orders.GetByOrderUID(ctx, orderUID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	var resp warehouseWarrantyResponse
	if err := s.warehouse.Do(ctx, http.MethodPost, "/api/v1/warehouse/"+order.ItemUID+"/warranty",
		warehouseWarrantyRequest{Reason: reason}, &resp); err != nil {
		return nil, classifyWarehouseError(err)
	}

	return &model.WarrantyResponse{Decision: resp.Decision, WarrantyDate: resp.WarrantyDate}, nil
}

// List returns every order placed by userUID.
func (s *OrderService) List(ctx context.Context, userUID string) ([]*model.Order, error) {
	return s.orders.ListByUserUID(ctx, userUID)
}

// Get returns a single order by order_uid.
func (s *OrderService) Get(ctx context.Context, orderUID string) (*model.Order, error) {
	order, err := s.orders.GetByOrderUID(ctx, orderUID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// classifyWarehouseError maps a peer-client error into the typed sentinels
// §4.1 names, leaving dependency-access failures as *platform.AccessError.
func classifyWarehouseError(err error) error {
	var statusErr *platform.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusNotFound:
			return ErrItemNotFound
		case http.StatusConflict:
			return ErrItemNotAvailable
		}
	}
	return err
}
