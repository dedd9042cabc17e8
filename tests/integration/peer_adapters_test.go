//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ordersys/platform/internal/platform"
	whservice "github.com/ordersys/platform/internal/warehouse/service"
	wrservice "github.com/ordersys/platform/internal/warranty/service"
)

// warehouseAdapter satisfies order/service.PeerRequester by calling a real
// *whservice.ItemService directly instead of going over HTTP, so the saga
// integration tests exercise the real transactional reserve/release logic
// against the dockertest postgres instance without standing up a second
// HTTP server.
type warehouseAdapter struct {
	svc  *whservice.ItemService
	down bool
}

func (a *warehouseAdapter) Do(ctx context.Context, method, path string, body, out any) error {
	if a.down {
		return platform.NewAccessError("warehouse", errors.New("simulated warehouse outage"))
	}

	switch {
	case method == http.MethodPost && path == "/api/v1/warehouse":
		var req struct {
			OrderUID string `json:"orderUid"`
			Model    string `json:"model"`
			Size     string `json:"size"`
		}
		if err := remarshal(body, &req); err != nil {
			return err
		}
		oi, err := a.svc.Reserve(ctx, req.OrderUID, req.Model, req.Size)
		if err != nil {
			return mapWarehouseErr(err)
		}
		return remarshalOut(struct {
			Model        string `json:"model"`
			OrderItemUID string `json:"orderItemUid"`
			OrderUID     string `json:"orderUid"`
			Size         string `json:"size"`
		}{Model: req.Model, OrderItemUID: oi.OrderItemUID, OrderUID: oi.OrderUID, Size: req.Size}, out)

	case method == http.MethodDelete && strings.HasPrefix(path, "/api/v1/warehouse/"):
		orderItemUID := strings.TrimPrefix(path, "/api/v1/warehouse/")
		if err := a.svc.Release(ctx, orderItemUID); err != nil {
			return mapWarehouseErr(err)
		}
		return nil

	case method == http.MethodGet && strings.HasPrefix(path, "/api/v1/warehouse/"):
		orderItemUID := strings.TrimPrefix(path, "/api/v1/warehouse/")
		item, err := a.svc.Info(ctx, orderItemUID)
		if err != nil {
			return mapWarehouseErr(err)
		}
		return remarshalOut(struct {
			Model string `json:"model"`
			Size  string `json:"size"`
		}{Model: item.Model, Size: item.Size}, out)
	}

	return fmt.Errorf("warehouseAdapter: unhandled route %s %s", method, path)
}

func mapWarehouseErr(err error) error {
	switch {
	case errors.Is(err, whservice.ErrItemNotFound), errors.Is(err, whservice.ErrOrderItemNotFound):
		return &platform.StatusError{Status: http.StatusNotFound}
	case errors.Is(err, whservice.ErrItemNotAvailable):
		return &platform.StatusError{Status: http.StatusConflict}
	default:
		return err
	}
}

// warrantyAdapter satisfies order/service.PeerRequester the same way, over
// a real *wrservice.WarrantyService.
type warrantyAdapter struct {
	svc  *wrservice.WarrantyService
	down bool
}

func (a *warrantyAdapter) Do(ctx context.Context, method, path string, _, _ any) error {
	if a.down {
		return platform.NewAccessError("warranty", errors.New("simulated warranty outage"))
	}

	itemUID := strings.TrimPrefix(path, "/api/v1/warranty/")
	switch method {
	case http.MethodPost:
		return a.svc.Enrol(ctx, itemUID)
	case http.MethodDelete:
		if err := a.svc.Close(ctx, itemUID); err != nil {
			if errors.Is(err, wrservice.ErrWarrantyNotFound) {
				return &platform.StatusError{Status: http.StatusNotFound}
			}
			return err
		}
		return nil
	}

	return fmt.Errorf("warrantyAdapter: unhandled route %s %s", method, path)
}

func remarshal(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

func remarshalOut(result, out any) error {
	if out == nil {
		return nil
	}
	return remarshal(result, out)
}
