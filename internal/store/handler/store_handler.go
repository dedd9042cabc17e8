package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ordersys/platform/internal/platform"
	"github.com/ordersys/platform/internal/store/model"
	"github.com/ordersys/platform/internal/store/service"
)

// StoreServiceInterface defines the business logic the handler needs.
type StoreServiceInterface interface {
	Purchase(ctx context.Context, userUID, modelName, size string) (string, error)
	Refund(ctx context.Context, userUID, orderUID string) error
	RequestWarranty(ctx context.Context, userUID, orderUID, reason string) (*model.WarrantyResponse, error)
	ListOrders(ctx context.Context, userUID string) ([]model.OrderView, error)
	GetOrder(ctx context.Context, userUID, orderUID string) (*model.OrderView, error)
}

// StoreHandler handles HTTP requests for the aggregation façade.
type StoreHandler struct {
	service   StoreServiceInterface
	validator *validator.Validate
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(svc StoreServiceInterface, v *validator.Validate) *StoreHandler {
	return &StoreHandler{service: svc, validator: v}
}

func writeUpstreamError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	var accessErr *platform.AccessError
	if errors.As(err, &accessErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": accessErr.Error()})
	}
	var statusErr *platform.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case fiber.StatusNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		case fiber.StatusConflict:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict"})
		}
	}
	log.Error().Err(err).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// Purchase handles POST /api/v1/store/:userUid/purchase.
func (h *StoreHandler) Purchase(c *fiber.Ctx) error {
	userUID := c.Params("userUid")

	var req model.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	orderUID, err := h.service.Purchase(c.Context(), userUID, req.Model, req.Size)
	if err != nil {
		return writeUpstreamError(c, err)
	}

	c.Set(fiber.HeaderLocation, "/"+orderUID)
	return c.SendStatus(fiber.StatusCreated)
}

// Refund handles DELETE /api/v1/store/:userUid/:orderUid/refund.
func (h *StoreHandler) Refund(c *fiber.Ctx) error {
	userUID := c.Params("userUid")
	orderUID := c.Params("orderUid")

	if err := h.service.Refund(c.Context(), userUID, orderUID); err != nil {
		return writeUpstreamError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequestWarranty handles POST /api/v1/store/:userUid/:orderUid/warranty.
func (h *StoreHandler) RequestWarranty(c *fiber.Ctx) error {
	userUID := c.Params("userUid")
	orderUID := c.Params("orderUid")

	var req model.WarrantyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	resp, err := h.service.RequestWarranty(c.Context(), userUID, orderUID, req.Reason)
	if err != nil {
		return writeUpstreamError(c, err)
	}

	return c.JSON(resp)
}

// ListOrders handles GET /api/v1/store/:userUid/orders.
func (h *StoreHandler) ListOrders(c *fiber.Ctx) error {
	userUID := c.Params("userUid")

	views, err := h.service.ListOrders(c.Context(), userUID)
	if err != nil {
		return writeUpstreamError(c, err)
	}

	return c.JSON(views)
}

// GetOrder handles GET /api/v1/store/:userUid/:orderUid.
func (h *StoreHandler) GetOrder(c *fiber.Ctx) error {
	userUID := c.Params("userUid")
	orderUID := c.Params("orderUid")

	view, err := h.service.GetOrder(c.Context(), userUID, orderUID)
	if err != nil {
		return writeUpstreamError(c, err)
	}

	return c.JSON(view)
}
