package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/barterdesk/barterdesk/internal/logging"
)

// maxErrorBody bounds how much of a failure body we are willing to read.
const maxErrorBody = 64 << 10

// Client talks to the BarterDesk backend over HTTPS with JSON bodies.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

// NewClient builds a Client whose transport injects the stored bearer
// credential on every non-bootstrap call.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: NewGate(http.DefaultTransport, tokens),
			Timeout:   timeout,
		},
		log: log.With("component", "api_client"),
	}
}

type credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Errors string `json:"errors"`
}

// Item is a marketplace listing (fixed-shape transfer data).
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// Login exchanges email/password for a bearer token. The returned token is
// reported as-is; an empty token on a success response is for the caller to
// classify.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/login", credentials{Email: email, Password: password})
}

// Register creates an account and returns the bearer token issued for it.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/register", credentials{Username: username, Email: email, Password: password})
}

// CreateUser is the legacy account-creation endpoint kept for backends that
// still route through it. Identical contract to Register.
func (c *Client) CreateUser(ctx context.Context, username, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/create-user", credentials{Username: username, Email: email, Password: password})
}

// Items lists marketplace items. Requires a stored credential to return
// anything useful; without one the server will reject the call.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, http.MethodGet, "/api/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *Client) authenticate(ctx context.Context, path string, creds credentials) (string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// no response received at all
		c.log.Warn(ctx, "request failed without a response", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(ctx, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// a success response with a missing or broken body is left for the
		// caller to classify, same as an empty credential
		c.log.Warn(ctx, "could not decode success body", "method", method, "path", path, "error", err)
	}
	return nil
}

// failure turns a non-2xx response into an *Error, extracting the message
// from a structured {"errors": "..."} body when one is present.
func (c *Client) failure(ctx context.Context, resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var body errorResponse
		if jerr := json.Unmarshal(data, &body); jerr == nil {
			apiErr.Message = body.Errors
		}
	}

	c.log.Debug(ctx, "server rejected request", "status", apiErr.StatusCode, "message", apiErr.Message)
	return apiErr
}

// IsUnavailable reports whether err represents a transport-level failure
// where no response was received.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
