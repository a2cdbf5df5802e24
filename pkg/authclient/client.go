// Package authclient is the typed HTTP client every origin app uses to talk
// to the session service. Transport failures are returned as errors and left
// to the caller: validation treats them as fail-open, login as fail-closed.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/hybridui/suite/api/transport"
	"github.com/hybridui/suite/domain"
)

const healthTimeout = 2 * time.Second

type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &fasthttp.Client{},
		timeout: timeout,
	}
}

// Login exchanges credentials for a session. Fails closed: any transport or
// server error means no session.
func (c *Client) Login(ctx context.Context, username, password string) (*transport.LoginResponse, error) {
	var resp transport.LoginResponse
	status, err := c.postJSON(ctx, "/auth/login", transport.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		return &resp, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrInvalidCredentials
	case http.StatusBadRequest:
		return nil, domain.ErrInvalidPayload
	default:
		return nil, fmt.Errorf("login: unexpected status %d", status)
	}
}

// Validate checks a token. A definitive negative comes back as
// (valid=false, nil); transport problems come back as an error so the caller
// can choose fail-open.
func (c *Client) Validate(ctx context.Context, token string) (*transport.ValidateResponse, error) {
	var resp transport.ValidateResponse
	status, err := c.postJSON(ctx, "/auth/validate", transport.TokenRequest{SessionToken: token}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("validate: unexpected status %d", status)
	}
	return &resp, nil
}

// Logout invalidates a token server-side. Best-effort by contract; callers
// typically log and ignore the error.
func (c *Client) Logout(ctx context.Context, token string) error {
	var resp transport.LogoutResponse
	_, err := c.postJSON(ctx, "/auth/logout", transport.TokenRequest{SessionToken: token}, &resp)
	return err
}

// Refresh extends the server-side TTL for a token.
func (c *Client) Refresh(ctx context.Context, token string) (*transport.RefreshResponse, error) {
	var resp transport.RefreshResponse
	status, err := c.postJSON(ctx, "/auth/refresh", transport.TokenRequest{SessionToken: token}, &resp)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		return &resp, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrSessionNotFound
	default:
		return nil, fmt.Errorf("refresh: unexpected status %d", status)
	}
}

// Healthy probes the service's health endpoint with a short timeout. The
// endpoint answers 200 even when the session store is down, so the degraded
// state is read from the status field.
func (c *Client) Healthy(ctx context.Context) bool {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/health")
	req.Header.SetMethod(http.MethodGet)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx, healthTimeout)); err != nil {
		return false
	}
	if resp.StatusCode() != http.StatusOK {
		return false
	}

	var health transport.HealthResponse
	if err := json.Unmarshal(resp.Body(), &health); err != nil {
		return false
	}
	return health.Status == "ok"
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(http.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx, c.timeout)); err != nil {
		return 0, fmt.Errorf("session service unreachable: %w", err)
	}

	status := resp.StatusCode()
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return status, fmt.Errorf("malformed response from session service: %w", err)
		}
	}
	return status, nil
}

func (c *Client) deadline(ctx context.Context, fallback time.Duration) time.Time {
	deadline := time.Now().Add(fallback)
	if ctx != nil {
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
	}
	return deadline
}
