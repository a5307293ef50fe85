package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/services"
)

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	gw    *gateway.Client
	audit *services.DBAuditLog
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(gw *gateway.Client, audit *services.DBAuditLog) *AdminHandler {
	return &AdminHandler{gw: gw, audit: audit}
}

// DashboardStats derives arrival counters from the full guest list.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	result, err := h.gw.ListGuests(c.Context(), "")
	if err != nil {
		return err
	}

	var notArrived, queued, done int
	for _, g := range result.Guests {
		switch {
		case g.Completed():
			done++
		case g.Queued():
			queued++
		default:
			notArrived++
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"total_guests": len(result.Guests),
			"not_arrived":  notArrived,
			"queue":        queued,
			"done":         done,
			"arrived":      queued + done,
			"companions":   guest.TotalCompanions(result.Guests),
		},
	})
}

// RecentActivity lists the most recent check-in audit entries recorded by
// this station.
func (h *AdminHandler) RecentActivity(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.audit.ListRecent(c.Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"total":   len(entries),
	})
}
