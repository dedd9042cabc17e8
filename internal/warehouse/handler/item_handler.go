package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ordersys/platform/internal/platform"
	"github.com/ordersys/platform/internal/warehouse/model"
	"github.com/ordersys/platform/internal/warehouse/service"
)

// ItemServiceInterface defines the business logic the handler needs.
type ItemServiceInterface interface {
	Reserve(ctx context.Context, orderUID, modelName, size string) (*model.OrderItem, error)
	Release(ctx context.Context, orderItemUID string) error
	Info(ctx context.Context, orderItemUID string) (*model.Item, error)
	RequestWarrantyVerdict(ctx context.Context, orderItemUID, reason string) (*service.WarrantyVerdictResult, error)
}

// ItemHandler handles HTTP requests for warehouse operations.
type ItemHandler struct {
	service   ItemServiceInterface
	validator *validator.Validate
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(svc ItemServiceInterface, v *validator.Validate) *ItemHandler {
	return &ItemHandler{service: svc, validator: v}
}

// GetItemInfo handles GET /api/v1/warehouse/:orderItemUid.
func (h *ItemHandler) GetItemInfo(c *fiber.Ctx) error {
	orderItemUID := c.Params("orderItemUid")
	if _, err := platform.ParseUUID(orderItemUID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order item uid"})
	}

	item, err := h.service.Info(c.Context(), orderItemUID)
	if err != nil {
		if errors.Is(err, service.ErrOrderItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order item not found"})
		}
		log.Error().Err(err).Str("order_item_uid", orderItemUID).Msg("failed to get item info")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.ItemInfoResponse{Model: item.Model, Size: item.Size})
}

// Reserve handles POST /api/v1/warehouse.
func (h *ItemHandler) Reserve(c *fiber.Ctx) error {
	var req model.ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	orderItem, err := h.service.Reserve(c.Context(), req.OrderUID, req.Model, req.Size)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
		}
		if errors.Is(err, service.ErrItemNotAvailable) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "item not available"})
		}
		log.Error().Err(err).Str("order_uid", req.OrderUID).Msg("failed to reserve item")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.ReserveResponse{
		Model:        req.Model,
		OrderItemUID: orderItem.OrderItemUID,
		OrderUID:     orderItem.OrderUID,
		Size:         req.Size,
	})
}

// Release handles DELETE /api/v1/warehouse/:orderItemUid.
func (h *ItemHandler) Release(c *fiber.Ctx) error {
	orderItemUID := c.Params("orderItemUid")
	if _, err := platform.ParseUUID(orderItemUID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order item uid"})
	}

	if err := h.service.Release(c.Context(), orderItemUID); err != nil {
		if errors.Is(err, service.ErrOrderItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order item not found"})
		}
		log.Error().Err(err).Str("order_item_uid", orderItemUID).Msg("failed to release item")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// WarrantyVerdict handles POST /api/v1/warehouse/:orderItemUid/warranty.
func (h *ItemHandler) WarrantyVerdict(c *fiber.Ctx) error {
	orderItemUID := c.Params("orderItemUid")
	if _, err := platform.ParseUUID(orderItemUID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order item uid"})
	}

	var req model.WarrantyVerdictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	result, err := h.service.RequestWarrantyVerdict(c.Context(), orderItemUID, req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrOrderItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order item not found"})
		}
		var accessErr *platform.AccessError
		if errors.As(err, &accessErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": accessErr.Error()})
		}
		log.Error().Err(err).Str("order_item_uid", orderItemUID).Msg("failed to request warranty verdict")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.WarrantyVerdictResponse{Decision: result.Decision, WarrantyDate: result.WarrantyDate})
}
