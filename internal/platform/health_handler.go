package platform

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

// RegisterHealthRoute wires GET /manage/health behind HTTP basic-auth, the
// way every service in this system exposes its health-gate probe target.
// It returns a fixed health document; callers that need actual liveness
// (e.g. each service's own DB ping) should additionally expose /health.
func RegisterHealthRoute(app *fiber.App, admin AdminConfig) {
	app.Use("/manage/health", basicauth.New(basicauth.Config{
		Users: map[string]string{
			admin.Username: admin.Password,
		},
	}))
	app.Get("/manage/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "UP"})
	})
}
