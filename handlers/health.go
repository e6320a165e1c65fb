package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
)

// Ping reports liveness and store health
func Ping(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		if err := store.HealthCheck(); err != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status": status,
		})
	}
}
