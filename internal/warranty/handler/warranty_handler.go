package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ordersys/platform/internal/warranty/model"
	"github.com/ordersys/platform/internal/warranty/service"
)

// WarrantyServiceInterface defines the business logic the handler needs.
type WarrantyServiceInterface interface {
	Enrol(ctx context.Context, itemUID string) error
	Close(ctx context.Context, itemUID string) error
	Get(ctx context.Context, itemUID string) (*model.Warranty, error)
	RequestVerdict(ctx context.Context, itemUID string, availableCount int, reason string) (*model.VerdictResponse, error)
}

// WarrantyHandler handles HTTP requests for warranty operations.
type WarrantyHandler struct {
	service   WarrantyServiceInterface
	validator *validator.Validate
}

// NewWarrantyHandler creates a new WarrantyHandler.
func NewWarrantyHandler(svc WarrantyServiceInterface, v *validator.Validate) *WarrantyHandler {
	return &WarrantyHandler{service: svc, validator: v}
}

// Get handles GET /api/v1/warranty/:itemUid.
func (h *WarrantyHandler) Get(c *fiber.Ctx) error {
	itemUID := c.Params("itemUid")

	w, err := h.service.Get(c.Context(), itemUID)
	if err != nil {
		if errors.Is(err, service.ErrWarrantyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "warranty not found"})
		}
		log.Error().Err(err).Str("item_uid", itemUID).Msg("failed to get warranty")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.GetResponse{ItemUID: w.ItemUID, Status: w.Status, WarrantyDate: w.WarrantyDate})
}

// Enrol handles POST /api/v1/warranty/:itemUid.
func (h *WarrantyHandler) Enrol(c *fiber.Ctx) error {
	itemUID := c.Params("itemUid")

	if err := h.service.Enrol(c.Context(), itemUID); err != nil {
		log.Error().Err(err).Str("item_uid", itemUID).Msg("failed to enrol warranty")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Close handles DELETE /api/v1/warranty/:itemUid.
func (h *WarrantyHandler) Close(c *fiber.Ctx) error {
	itemUID := c.Params("itemUid")

	if err := h.service.Close(c.Context(), itemUID); err != nil {
		if errors.Is(err, service.ErrWarrantyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "warranty not found"})
		}
		log.Error().Err(err).Str("item_uid", itemUID).Msg("failed to close warranty")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequestVerdict handles POST /api/v1/warranty/:itemUid/warranty.
func (h *WarrantyHandler) RequestVerdict(c *fiber.Ctx) error {
	itemUID := c.Params("itemUid")

	var req model.VerdictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	resp, err := h.service.RequestVerdict(c.Context(), itemUID, req.AvailableCount, req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrWarrantyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "warranty not found"})
		}
		log.Error().Err(err).Str("item_uid", itemUID).Msg("failed to issue warranty verdict")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(resp)
}
