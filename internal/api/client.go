// Package api is the typed client for the OmniDine REST API. Every response
// body is expected to be an envelope of the form {"data": ...}; anything else
// is reported as ErrMalformed instead of being trusted.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/omnidine/internal/logging"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("rejected")
	ErrUnavailable  = errors.New("service unavailable")
	ErrMalformed    = errors.New("malformed response")
)

// Error is a non-2xx answer from the API.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s (status=%d)", e.Method, e.Path, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api %s %s (status=%d)", e.Method, e.Path, e.StatusCode)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrRejected:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

type Client struct {
	base   string
	hc     *http.Client
	logger *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		hc:     &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type envelope[T any] struct {
	Data *T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// call performs one request and decodes the envelope's data into out.
// It never retries.
func call[T any](ctx context.Context, c *Client, method, path, token string, query url.Values, in any) (T, error) {
	var zero T

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return zero, err
		}
		body = bytes.NewReader(b)
	}

	rawURL := c.base + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return zero, err
	}
	reqID := uuid.NewString()
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-request-id", reqID)
	if in != nil {
		req.Header.Set("content-type", "application/json")
	}
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return zero, fmt.Errorf("api %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, fmt.Errorf("api %s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("api request", "method", method, "path", path, "status", res.StatusCode,
		"request_id", reqID, "duration", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(b, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		apiErr := &Error{Method: method, Path: path, StatusCode: res.StatusCode, Message: msg}
		c.logger.Warn("api request rejected", "method", method, "path", path, "status", res.StatusCode,
			"request_id", reqID, "message", msg)
		return zero, apiErr
	}

	var env envelope[T]
	if err := json.Unmarshal(b, &env); err != nil {
		return zero, fmt.Errorf("api %s %s: %w: %v", method, path, ErrMalformed, err)
	}
	if env.Data == nil {
		return zero, fmt.Errorf("api %s %s: %w: missing data", method, path, ErrMalformed)
	}
	return *env.Data, nil
}
