package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/services"
)

func TestErrorHandlerMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", &services.ValidationError{Reason: "Guest already checked in."}, http.StatusBadRequest, "Guest already checked in."},
		{"in flight", services.ErrActionInFlight, http.StatusConflict, services.ErrActionInFlight.Error()},
		{"guest not found", gateway.ErrGuestNotFound, http.StatusNotFound, "Guest not found."},
		{"backend rejection", &gateway.HTTPError{Status: http.StatusForbidden, Message: "no access"}, http.StatusForbidden, "no access"},
		{"backend sub-400 status", &gateway.HTTPError{Status: http.StatusNoContent, Message: "odd"}, http.StatusBadRequest, "odd"},
		{"network", gateway.ErrNetwork, http.StatusBadGateway, "Unable to connect to server"},
		{"schema", &gateway.SchemaError{Reason: "Invalid response: missing user data or token"}, http.StatusBadGateway, "Invalid response: missing user data or token"},
		{"fiber error", fiber.NewError(http.StatusUnauthorized, "invalid token"), http.StatusUnauthorized, "invalid token"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/boom", func(c *fiber.Ctx) error {
				return tc.err
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}

			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Error("success must be false")
			}
			if body.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tc.wantMsg)
			}
		})
	}
}
