package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

// RouterDeps dependencias del servidor de estado.
type RouterDeps struct {
	AppName  string
	Products repository.ProductRepository
	Policy   monitor.SchedulePolicy
}

// Router registra las rutas del servidor de estado.
func Router(app *fiber.App, deps RouterDeps) {
	statusHandler := NewStatusHandler(deps.Products, deps.Policy)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	app.Get("/status", statusHandler.Status)
}
