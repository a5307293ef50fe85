package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/config"
	"github.com/example/ruangtamu/internal/models"
	"github.com/example/ruangtamu/internal/session"
	"github.com/example/ruangtamu/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	sessions *session.Manager
	cfg      *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(sessions *session.Manager, cfg *config.Config) *AuthHandler {
	return &AuthHandler{sessions: sessions, cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the station operator against the backend and mints a
// console token for the browser.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and password are required.")
	}
	if !strings.Contains(req.Email, "@") {
		return fiber.NewError(fiber.StatusBadRequest, "Please enter a valid email address.")
	}

	op, redirect, err := h.sessions.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, op.ID, op.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"user":     op,
		"token":    token,
		"redirect": redirect,
	})
}

// Logout clears the station session unconditionally.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Logout()

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// Session reports the current operator session state.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	op := h.sessions.Operator()
	if op == nil {
		return c.JSON(fiber.Map{
			"success":       true,
			"authenticated": false,
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"authenticated": true,
		"user":          op,
		"redirect":      session.RedirectFor(op.Role),
	})
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfile merges non-empty profile fields into the current operator.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	op, ok := h.sessions.UpdateOperator(models.Operator{Name: req.Name, Email: req.Email})
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "no active session")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    op,
	})
}
