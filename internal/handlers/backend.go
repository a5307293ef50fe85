package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/gateway"
)

// BackendHandler proxies raw requests to the remote reception backend,
// injecting the station's bearer token.
type BackendHandler struct {
	gw *gateway.Client
}

// NewBackendHandler builds a BackendHandler instance.
func NewBackendHandler(gw *gateway.Client) *BackendHandler {
	return &BackendHandler{gw: gw}
}

// Proxy forwards the incoming request to the backend webhook tree.
func (h *BackendHandler) Proxy(c *fiber.Ctx) error {
	method := strings.ToUpper(strings.TrimSpace(c.Method()))
	if method == "" {
		method = http.MethodGet
	}

	path := strings.TrimLeft(strings.TrimSpace(c.Params("*")), "/")
	if path == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing backend path")
	}

	var body any
	if len(c.Body()) > 0 {
		body = json.RawMessage(c.Body())
	}

	queryMap := make(map[string]string, len(c.Queries()))
	for k, v := range c.Queries() {
		queryMap[k] = v
	}

	reqHeaders := c.GetReqHeaders()
	headers := make(map[string]string, len(reqHeaders))
	for k, vals := range reqHeaders {
		if strings.EqualFold(k, "Authorization") {
			continue
		}
		if len(vals) > 0 {
			headers[k] = vals[0]
		}
	}

	resp, err := h.gw.Do(c.Context(), gateway.RequestOpts{
		Method:  method,
		Path:    "/webhook/" + path,
		Query:   queryMap,
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return err
	}

	c.Status(resp.Status)

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Set("Content-Type", ct)
	}

	return c.Send(resp.Body)
}
