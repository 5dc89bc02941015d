// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

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

	"go.uber.org/zap"
)

// MaxResponseSize is the maximum allowed response body size.
const MaxResponseSize = 10 * 1024 * 1024

// ErrInvalidResponse indicates a body that is not the JSON envelope.
var ErrInvalidResponse = errors.New("invalid response")

// RequestOptions describes one API call.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is the decoded JSON envelope of a successful call.
type Response struct {
	StatusCode int
	// Data is the raw "data" member.
	Data json.RawMessage
	// Message is the optional top-level "message" member.
	Message string
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrInvalidResponse)
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RequestError is returned for non-2xx responses and transport failures.
// StatusCode is 0 when no response was received.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Unwrap returns the underlying transport error, if any.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Unauthorized reports a 401 response.
func (e *RequestError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Request calls path with the current session token.
func (p *Provider) Request(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return p.RequestWithToken(ctx, p.Token(), path, opts)
}

// RequestWithToken calls path with an explicitly captured token. An empty
// token sends no Authorization header.
func (p *Provider) RequestWithToken(ctx context.Context, token, path string, opts RequestOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &RequestError{Message: "request throttled: " + err.Error(), Err: err}
	}

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		p.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &RequestError{Message: "request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	p.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := readResponse(resp)
	if err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	var env envelope
	parseErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("request failed: status %d", resp.StatusCode)
		if parseErr == nil && env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: msg}
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, parseErr)
	}

	return &Response{StatusCode: resp.StatusCode, Data: env.Data, Message: env.Message}, nil
}

func (p *Provider) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.baseURL + path
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
