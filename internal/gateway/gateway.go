package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/models"
)

const (
	loginPath       = "/webhook/auth/login"
	listGuestsPath  = "/webhook/get-guests"
	searchPath      = "/webhook/search-guests"
	createGuestPath = "/webhook/create-guest"
	checkInPath     = "/webhook/check-in-guest"
	cancelPath      = "/webhook/cancel-check-in"
	takeGuestPath   = "/webhook/take-guest"
	queuePath       = "/webhook/get-queue"
)

// TokenSource supplies the current bearer token, or "" when the station is
// not authenticated.
type TokenSource func() string

// Client talks to the remote reception backend.
type Client struct {
	baseURL      string
	getGuestHook string
	runnerHook   string
	token        TokenSource
	http         *http.Client
	log          zerolog.Logger
}

// New builds a Client. getGuestHook and runnerHook are the webhook IDs the
// backend embeds in the get-guest and runner-completed paths.
func New(baseURL, getGuestHook, runnerHook string, token TokenSource, log zerolog.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		getGuestHook: getGuestHook,
		runnerHook:   runnerHook,
		token:        token,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          log,
	}
}

// RequestOpts captures inputs for a backend call.
type RequestOpts struct {
	Method  string
	Path    string
	Query   map[string]string
	Body    any
	Headers map[string]string
}

// Response bundles the HTTP response after array-unwrap normalization.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Do performs a backend request. The returned error covers request
// construction and transport failures only; HTTP statuses, whatever they
// are, flow through in the Response. If the raw payload is a non-empty JSON
// array it is unwrapped to its first element before being returned.
func (c *Client) Do(ctx context.Context, opts RequestOpts) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.buildURL(opts.Path, opts.Query)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	c.log.Debug().Str("method", method).Str("path", opts.Path).Msg("backend request")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn().Err(err).Str("path", opts.Path).Msg("backend unreachable")
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Body:   unwrapArray(raw),
		Header: resp.Header.Clone(),
	}, nil
}

func (c *Client) buildURL(path string, query map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse backend URL: %w", err)
	}
	if len(query) > 0 {
		values := u.Query()
		for k, v := range query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}
	return u.String(), nil
}

// unwrapArray applies the universal normalization rule: a non-empty JSON
// array payload is replaced by its first element. The backend wraps single
// results in a one-element list on several endpoints.
func unwrapArray(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return raw
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil || len(items) == 0 {
		return raw
	}
	return items[0]
}

// Envelope is the canonical decoded response shape after normalization.
// Only the fields relevant to the caller are populated by any given
// endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Found   *bool           `json:"found"`
	Guest   json.RawMessage `json:"guest"`
	Guests  json.RawMessage `json:"guests"`
	Queue   json.RawMessage `json:"queue"`
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
}

// DecodeEnvelope parses a response body tolerantly: malformed payloads
// yield a zero envelope rather than an error, since status-code
// classification happens independently.
func DecodeEnvelope(body []byte) Envelope {
	var env Envelope
	_ = json.Unmarshal(body, &env)
	return env
}

// sendEnvelope performs a request and applies strict classification:
// non-2xx statuses and explicit success:false both become HTTPError.
func (c *Client) sendEnvelope(ctx context.Context, opts RequestOpts) (Envelope, error) {
	resp, err := c.Do(ctx, opts)
	if err != nil {
		return Envelope{}, err
	}

	env := DecodeEnvelope(resp.Body)
	if resp.Status < 200 || resp.Status >= 300 {
		return Envelope{}, &HTTPError{Status: resp.Status, Message: env.Message}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return Envelope{}, &HTTPError{Status: resp.Status, Message: msg}
	}
	return env, nil
}

// ListResult is the uniform projection of every guest-list response.
type ListResult struct {
	Guests []guest.Record
	Total  int
}

// listResult projects a guests/queue/data list field into the uniform
// {data, total} shape. Total falls back to the list length when the backend
// omits it.
func (env Envelope) listResult() (ListResult, error) {
	raw := env.Guests
	if len(raw) == 0 || string(raw) == "null" {
		raw = env.Queue
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = env.Data
	}

	result := ListResult{Guests: []guest.Record{}, Total: env.Total}
	if len(raw) == 0 || string(raw) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(raw, &result.Guests); err != nil {
		return ListResult{}, &SchemaError{Reason: "malformed guest list in response"}
	}
	if result.Total == 0 {
		result.Total = len(result.Guests)
	}
	return result, nil
}

// Login authenticates an operator against the backend. Both a user object
// and a token are required in the response; anything less is a schema
// violation and must not be treated as a session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Operator, string, error) {
	resp, err := c.Do(ctx, RequestOpts{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, "", err
	}

	env := DecodeEnvelope(resp.Body)
	if resp.Status < 200 || resp.Status >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Login failed. Please check your credentials."
		}
		return nil, "", &HTTPError{Status: resp.Status, Message: msg}
	}

	var payload struct {
		User  *models.Operator `json:"user"`
		Token string           `json:"token"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, "", &SchemaError{Reason: "malformed login response"}
		}
	}
	if payload.User == nil || payload.Token == "" {
		return nil, "", &SchemaError{Reason: "Invalid response: missing user data or token"}
	}
	return payload.User, payload.Token, nil
}

// GetGuest fetches one guest by UID.
func (c *Client) GetGuest(ctx context.Context, uid string) (*guest.Record, error) {
	path := fmt.Sprintf("/webhook/%s/get-guest/%s", c.getGuestHook, url.PathEscape(uid))
	if c.getGuestHook == "" {
		path = "/webhook/get-guest/" + url.PathEscape(uid)
	}

	env, err := c.sendEnvelope(ctx, RequestOpts{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	if env.Found != nil && !*env.Found {
		return nil, ErrGuestNotFound
	}
	if len(env.Guest) == 0 || string(env.Guest) == "null" {
		return nil, ErrGuestNotFound
	}

	var g guest.Record
	if err := json.Unmarshal(env.Guest, &g); err != nil {
		return nil, &SchemaError{Reason: "malformed guest in response"}
	}
	return &g, nil
}

// ListGuests fetches the authoritative guest list, optionally filtered by
// check-in status on the backend side.
func (c *Client) ListGuests(ctx context.Context, status guest.Status) (ListResult, error) {
	opts := RequestOpts{Method: http.MethodGet, Path: listGuestsPath}
	if status != "" {
		opts.Query = map[string]string{"status": string(status)}
	}
	env, err := c.sendEnvelope(ctx, opts)
	if err != nil {
		return ListResult{}, err
	}
	return env.listResult()
}

// SearchGuests runs a backend-side guest search.
func (c *Client) SearchGuests(ctx context.Context, query string) (ListResult, error) {
	env, err := c.sendEnvelope(ctx, RequestOpts{
		Method: http.MethodPost,
		Path:   searchPath,
		Body:   map[string]string{"query": query},
	})
	if err != nil {
		return ListResult{}, err
	}
	return env.listResult()
}

// CreateGuest registers a new invitee with the backend and returns the
// created record.
func (c *Client) CreateGuest(ctx context.Context, fields any) (*guest.Record, error) {
	env, err := c.sendEnvelope(ctx, RequestOpts{
		Method: http.MethodPost,
		Path:   createGuestPath,
		Body:   fields,
	})
	if err != nil {
		return nil, err
	}
	if len(env.Guest) == 0 || string(env.Guest) == "null" {
		return nil, &SchemaError{Reason: "create response missing guest"}
	}
	var g guest.Record
	if err := json.Unmarshal(env.Guest, &g); err != nil {
		return nil, &SchemaError{Reason: "malformed guest in response"}
	}
	return &g, nil
}

// CheckInGuest sends the forward check-in request. Classification is left
// to the caller: the protocol layer owns the success rules for mutations.
func (c *Client) CheckInGuest(ctx context.Context, uid string, fields map[string]any) (*Response, error) {
	return c.Do(ctx, RequestOpts{
		Method: http.MethodPost,
		Path:   checkInPath,
		Body:   mutationBody(uid, fields),
	})
}

// CancelCheckIn sends the reset request keyed by UID. Classification is
// left to the caller.
func (c *Client) CancelCheckIn(ctx context.Context, uid string) (*Response, error) {
	return c.Do(ctx, RequestOpts{
		Method: http.MethodPost,
		Path:   cancelPath,
		Body:   map[string]any{"uid": uid},
	})
}

// TakeGuest sends the runner escort request. Classification is left to the
// caller.
func (c *Client) TakeGuest(ctx context.Context, uid string, fields map[string]any) (*Response, error) {
	return c.Do(ctx, RequestOpts{
		Method: http.MethodPost,
		Path:   takeGuestPath,
		Body:   mutationBody(uid, fields),
	})
}

// Queue fetches the current check-in queue. The backend names the list
// field "guests" or "queue" depending on the workflow version; both project
// into the same result.
func (c *Client) Queue(ctx context.Context) (ListResult, error) {
	env, err := c.sendEnvelope(ctx, RequestOpts{Method: http.MethodGet, Path: queuePath})
	if err != nil {
		return ListResult{}, err
	}
	return env.listResult()
}

// RunnerCompleted fetches the guests a runner has already seated.
func (c *Client) RunnerCompleted(ctx context.Context, runnerID string) (ListResult, error) {
	path := fmt.Sprintf("/webhook/%s/runner-completed/%s", c.runnerHook, url.PathEscape(runnerID))
	if c.runnerHook == "" {
		path = "/webhook/runner-completed/" + url.PathEscape(runnerID)
	}
	env, err := c.sendEnvelope(ctx, RequestOpts{Method: http.MethodGet, Path: path})
	if err != nil {
		return ListResult{}, err
	}
	return env.listResult()
}

// Ping probes backend reachability at startup.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListGuests(ctx, "")
	return err
}

func mutationBody(uid string, fields map[string]any) map[string]any {
	body := map[string]any{"uid": uid}
	for k, v := range fields {
		body[k] = v
	}
	return body
}
