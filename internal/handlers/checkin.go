package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/models"
	"github.com/example/ruangtamu/internal/services"
	"github.com/example/ruangtamu/internal/session"
)

// CheckinHandler bundles dependencies for the check-in lifecycle endpoints.
type CheckinHandler struct {
	gw       *gateway.Client
	svc      *services.CheckinService
	sessions *session.Manager
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(gw *gateway.Client, svc *services.CheckinService, sessions *session.Manager) *CheckinHandler {
	return &CheckinHandler{gw: gw, svc: svc, sessions: sessions}
}

type checkinRequest struct {
	CompanionCount int    `json:"companion_count"`
	GiftType       string `json:"gift_type"`
	GiftNotes      string `json:"gift_notes"`
}

// CheckIn moves a guest from not-arrived into the seating queue.
func (h *CheckinHandler) CheckIn(c *fiber.Ctx) error {
	var req checkinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	g, op, err := h.loadGuestAndOperator(c)
	if err != nil {
		return err
	}

	updated, err := h.svc.CheckIn(c.Context(), *g, services.CheckinData{
		CompanionCount: req.CompanionCount,
		GiftType:       req.GiftType,
		GiftNotes:      req.GiftNotes,
		CheckedInBy:    op.Name,
	}, op)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"guest":   updated,
	})
}

// Cancel reverts a checked-in guest back to not-arrived.
func (h *CheckinHandler) Cancel(c *fiber.Ctx) error {
	g, op, err := h.loadGuestAndOperator(c)
	if err != nil {
		return err
	}

	updated, err := h.svc.Cancel(c.Context(), *g, op)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"guest":   updated,
	})
}

type takeRequest struct {
	TableNumber string `json:"table_number"`
	RunnerNotes string `json:"runner_notes"`
}

// Take claims a queued guest for seating by the current runner.
func (h *CheckinHandler) Take(c *fiber.Ctx) error {
	var req takeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	g, op, err := h.loadGuestAndOperator(c)
	if err != nil {
		return err
	}

	updated, err := h.svc.Take(c.Context(), *g, services.TakeData{
		RunnerID:    op.ID,
		RunnerName:  op.Name,
		TableNumber: req.TableNumber,
		RunnerNotes: req.RunnerNotes,
	}, op)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"guest":   updated,
	})
}

// loadGuestAndOperator resolves the path UID against the backend and the
// current station operator. The fetched record is authoritative for
// eligibility checks.
func (h *CheckinHandler) loadGuestAndOperator(c *fiber.Ctx) (*guest.Record, *models.Operator, error) {
	uid := c.Params("uid")
	if uid == "" {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "guest uid is required")
	}

	op := h.sessions.Operator()
	if op == nil {
		return nil, nil, fiber.NewError(fiber.StatusUnauthorized, "no active session")
	}

	g, err := h.gw.GetGuest(c.Context(), uid)
	if err != nil {
		return nil, nil, err
	}

	return g, op, nil
}
