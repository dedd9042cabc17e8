package platform

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by *pgxpool.Pool; kept as an interface so handler
// tests can substitute a fake.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBHealthHandler reports service liveness by pinging the database, the
// way the teacher's health handler does, generalized so all four services
// share one implementation.
type DBHealthHandler struct {
	pool Pinger
}

// NewDBHealthHandler creates a new DBHealthHandler.
func NewDBHealthHandler(pool Pinger) *DBHealthHandler {
	return &DBHealthHandler{pool: pool}
}

// Check handles GET /health.
func (h *DBHealthHandler) Check(c *fiber.Ctx) error {
	if err := h.pool.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}
