package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ordersys/platform/internal/order/model"
	"github.com/ordersys/platform/internal/order/service"
	"github.com/ordersys/platform/internal/platform"
)

// OrderServiceInterface defines the business logic the handler needs.
type OrderServiceInterface interface {
	Purchase(ctx context.Context, userUID, modelName, size string) (string, error)
	Refund(ctx context.Context, orderUID string) error
	RequestWarranty(ctx context.Context, orderUID, reason string) (*model.WarrantyResponse, error)
	List(ctx context.Context, userUID string) ([]*model.Order, error)
	Get(ctx context.Context, orderUID string) (*model.Order, error)
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service   OrderServiceInterface
	validator *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServiceInterface, v *validator.Validate) *OrderHandler {
	return &OrderHandler{service: svc, validator: v}
}

func writeDependencyError(c *fiber.Ctx, err error) error {
	var accessErr *platform.AccessError
	if errors.As(err, &accessErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": accessErr.Error()})
	}
	log.Error().Err(err).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// Purchase handles POST /api/v1/orders/:userUid.
func (h *OrderHandler) Purchase(c *fiber.Ctx) error {
	userUID := c.Params("userUid")
	if _, err := platform.ParseUUID(userUID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user uid"})
	}

	var req model.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	orderUID, err := h.service.Purchase(c.Context(), userUID, req.Model, req.Size)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
		}
		if errors.Is(err, service.ErrItemNotAvailable) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "item not available"})
		}
		return writeDependencyError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(model.PurchaseResponse{OrderUID: orderUID})
}

// List handles GET /api/v1/orders/:userUid.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userUID := c.Params("userUid")

	orders, err := h.service.List(c.Context(), userUID)
	if err != nil {
		return writeDependencyError(c, err)
	}

	out := make([]model.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, model.ToResponse(o))
	}
	return c.JSON(out)
}

// Get handles GET /api/v1/orders/:userUid/:orderUid.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	orderUID := c.Params("orderUid")

	order, err := h.service.Get(c.Context(), orderUID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		return writeDependencyError(c, err)
	}

	return c.JSON(model.ToResponse(order))
}

// Refund handles DELETE /api/v1/orders/:orderUid.
func (h *OrderHandler) Refund(c *fiber.Ctx) error {
	orderUID := c.Params("orderUid")

	if err := h.service.Refund(c.Context(), orderUID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		return writeDependencyError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequestWarranty handles POST /api/v1/orders/:orderUid/warranty.
func (h *OrderHandler) RequestWarranty(c *fiber.Ctx) error {
	orderUID := c.Params("orderUid")

	var req model.WarrantyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	resp, err := h.service.RequestWarranty(c.Context(), orderUID, req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		return writeDependencyError(c, err)
	}

	return c.JSON(resp)
}
