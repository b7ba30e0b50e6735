// Package backend is the HTTP gateway to the WhatsApp bridge server.
package backend

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

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

// Timeouts bounds each class of backend call.
type Timeouts struct {
	Status  time.Duration
	Fetch   time.Duration
	History time.Duration
	Send    time.Duration
	Reset   time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Status:  3 * time.Second,
		Fetch:   15 * time.Second,
		History: 5 * time.Second,
		Send:    10 * time.Second,
		Reset:   10 * time.Second,
	}
}

// Client talks to the bridge server's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeouts   Timeouts
	logger     *zap.Logger
}

// New creates a gateway client for baseURL.
func New(baseURL string, timeouts Timeouts, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeouts:   timeouts,
		logger:     logger,
	}
}

// BaseURL returns the server address the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// EscapeID prepares a chat id for use as a path segment. The '@' in
// WhatsApp ids is always percent-encoded.
func EscapeID(id string) string {
	return strings.ReplaceAll(url.PathEscape(id), "@", "%40")
}

// ServerStatus is the readiness probe result.
type ServerStatus struct {
	Ready  bool
	HasQR  bool
	QR     string
	Status string
}

// Status probes backend readiness.
func (c *Client) Status(ctx context.Context) (ServerStatus, error) {
	body, err := c.do(ctx, "status", http.MethodGet, "/status", nil, c.timeouts.Status)
	if err != nil {
		return ServerStatus{}, err
	}
	if !gjson.ValidBytes(body) {
		return ServerStatus{}, &DataError{Op: "status", Msg: "malformed response"}
	}
	r := gjson.ParseBytes(body)
	return ServerStatus{
		Ready:  r.Get("ready").Bool(),
		HasQR:  r.Get("hasQR").Bool(),
		QR:     r.Get("qr").String(),
		Status: r.Get("status").String(),
	}, nil
}

// do performs one request with its own deadline and returns the body of
// a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, payload any, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &ConnectivityError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, &ConnectivityError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ConnectivityError{Op: op, Err: err}
	}

	c.logger.Debug("backend request",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ConnectivityError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Msg:        gjson.GetBytes(body, "error").String(),
		}
	}
	return body, nil
}

// checkSuccess rejects malformed bodies and explicit success:false.
func checkSuccess(op string, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &DataError{Op: op, Msg: "malformed response"}
	}
	r := gjson.ParseBytes(body)
	if s := r.Get("success"); s.Exists() && !s.Bool() {
		msg := r.Get("error").String()
		if msg == "" {
			msg = "request failed"
		}
		return gjson.Result{}, &DataError{Op: op, Msg: msg}
	}
	return r, nil
}
