package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/example/ruangtamu/internal/config"
	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/utils"
	"github.com/example/ruangtamu/internal/views"
)

// GuestHandler bundles dependencies for guest lookup and listing endpoints.
type GuestHandler struct {
	gw  *gateway.Client
	cfg *config.Config
}

// NewGuestHandler constructs a GuestHandler.
func NewGuestHandler(gw *gateway.Client, cfg *config.Config) *GuestHandler {
	return &GuestHandler{gw: gw, cfg: cfg}
}

// List fetches the guest list from the backend and applies search, sort and
// pagination locally.
func (h *GuestHandler) List(c *fiber.Ctx) error {
	status, err := parseStatusFilter(c.Query("status"))
	if err != nil {
		return err
	}

	result, err := h.gw.ListGuests(c.Context(), status)
	if err != nil {
		return err
	}

	query := utils.ParseListQuery(c)

	collection := views.NewCollection(result.Guests)
	collection.Search(query.Search)
	collection.SortBy(query.SortKey, query.SortDesc)
	collection.Paginate(query.Page, query.Limit)
	page := collection.Result()

	return c.JSON(fiber.Map{
		"success": true,
		"data":    page.Items,
		"total":   page.Filtered,
		"pagination": fiber.Map{
			"current_page":   page.PageNumber,
			"items_per_page": page.PageSize,
			"total_items":    page.Filtered,
			"total_pages":    page.TotalPages,
		},
	})
}

// Get looks up a single guest by UID.
func (h *GuestHandler) Get(c *fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "guest uid is required")
	}

	g, err := h.gw.GetGuest(c.Context(), uid)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"guest":   g,
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search forwards a free-text search to the backend.
func (h *GuestHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "search query is required")
	}

	result, err := h.gw.SearchGuests(c.Context(), req.Query)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result.Guests,
		"total":   result.Total,
	})
}

type createGuestRequest struct {
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	InvitationType   string   `json:"invitation_type"`
	InvitationValue  string   `json:"invitation_value"`
	GroupMemberNames []string `json:"group_member_names"`
}

// Create registers a new guest with the backend.
func (h *GuestHandler) Create(c *fiber.Ctx) error {
	var req createGuestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Guest name is required.")
	}

	g, err := h.gw.CreateGuest(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"guest":   g,
	})
}

// QR renders the guest card link for a UID as a PNG QR code.
func (h *GuestHandler) QR(c *fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" {
		return fiber.NewError(fiber.StatusBadRequest, "guest uid is required")
	}

	size := 256
	if raw := c.Query("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			size = parsed
		}
	}
	if size < 64 {
		size = 64
	}
	if size > 1024 {
		size = 1024
	}

	content := uid
	if h.cfg.GuestCardBaseURL != "" {
		content = strings.TrimSuffix(h.cfg.GuestCardBaseURL, "/") + "/" + uid
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render qr code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func parseStatusFilter(raw string) (guest.Status, error) {
	if raw == "" {
		return "", nil
	}

	status, ok := guest.ParseStatus(raw)
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "unknown status filter")
	}
	return status, nil
}
