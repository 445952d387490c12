package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

// StatusHandler expone el estado operativo del bot (solo lectura).
type StatusHandler struct {
	products repository.ProductRepository
	policy   monitor.SchedulePolicy
}

// NewStatusHandler construye el handler de estado.
func NewStatusHandler(products repository.ProductRepository, policy monitor.SchedulePolicy) *StatusHandler {
	return &StatusHandler{products: products, policy: policy}
}

// productStatus fila del snapshot del catálogo.
type productStatus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Available   bool      `json:"available"`
	LastChecked time.Time `json:"last_checked"`
}

// Status devuelve el snapshot del catálogo y el modo de chequeo vigente.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	products, err := h.products.ListOrderedByName()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "no se pudo leer el catálogo")
	}

	list := make([]productStatus, 0, len(products))
	for _, p := range products {
		list = append(list, productStatus{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Available:   p.Available,
			LastChecked: p.LastChecked,
		})
	}

	now := time.Now()
	mode := "normal"
	if interval, ok := h.policy.IntervalFor(now); !ok {
		mode = "downtime"
	} else if interval == h.policy.PeakInterval {
		mode = "peak"
	}

	return c.JSON(fiber.Map{
		"schedule_mode": mode,
		"products":      list,
	})
}
