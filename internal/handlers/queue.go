package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/services"
)

// QueueHandler serves the seating queue and runner views.
type QueueHandler struct {
	gw     *gateway.Client
	poller *services.QueuePoller
}

// NewQueueHandler constructs a QueueHandler.
func NewQueueHandler(gw *gateway.Client, poller *services.QueuePoller) *QueueHandler {
	return &QueueHandler{gw: gw, poller: poller}
}

// Queue returns the latest queue snapshot. Pass live=1 to bypass the poller
// and hit the backend directly.
func (h *QueueHandler) Queue(c *fiber.Ctx) error {
	if c.QueryBool("live") {
		result, err := h.gw.Queue(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    result.Guests,
			"total":   result.Total,
		})
	}

	snap := h.poller.Snapshot()
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       snap.Guests,
		"total":      snap.Total,
		"fetched_at": snap.FetchedAt,
	})
}

// RunnerCompleted lists guests a runner has already seated.
func (h *QueueHandler) RunnerCompleted(c *fiber.Ctx) error {
	runnerID := c.Params("id")
	if runnerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "runner id is required")
	}

	result, err := h.gw.RunnerCompleted(c.Context(), runnerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result.Guests,
		"total":   result.Total,
	})
}
