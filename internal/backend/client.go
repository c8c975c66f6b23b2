// Package backend is the REST adapter to the remote billing backend.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Config holds backend connection settings
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client implements the backend ports over resty
type Client struct {
	http   *resty.Client
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new backend client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "billing-workflow/1.0"
	}

	c := &Client{logger: logger}
	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetLogger(logger.Sugar()).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			logger.Debug("Backend call",
				zap.String("method", resp.Request.Method),
				zap.String("url", resp.Request.URL),
				zap.Int("status", resp.StatusCode()),
				zap.Duration("latency", resp.Time()))
			return nil
		})

	return c
}

// SetToken replaces the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token != "" {
		r.SetAuthToken(token)
	}
	return r
}

// errorBody is the backend's error envelope
type errorBody struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// transportError maps a failed round-trip to the error taxonomy
func transportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &port.TimeoutError{Op: op}
	}
	return &port.NetworkError{Op: op, Err: err}
}

// statusError maps a non-2xx reply; 409 is left to the caller
func statusError(op string, resp *resty.Response) error {
	var body errorBody
	_ = json.Unmarshal(resp.Body(), &body)

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, port.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if len(body.Errors) > 0 {
			return &port.ValidationError{Fields: body.Errors}
		}
		msg := body.text()
		if msg == "" {
			msg = "rejected by backend"
		}
		return port.NewValidationError("request", msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return &port.PermissionError{Action: op}
	default:
		var cause error
		if msg := body.text(); msg != "" {
			cause = errors.New(msg)
		}
		return &port.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: cause}
	}
}
