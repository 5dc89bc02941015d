// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides typed calls to the hueychat chat API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/auth"
	"github.com/jeranaias/hueychat/internal/logging"
	"github.com/jeranaias/hueychat/internal/model"
)

// Endpoint paths relative to the base URL.
const (
	PathSend    = "/chat/send"
	PathModels  = "/chat/models"
	PathProfile = "/users/profile"
)

// ErrMalformedResponse indicates a reply without data.response.content.
var ErrMalformedResponse = errors.New("malformed AI response")

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SendRequest is the body of POST /chat/send.
type SendRequest struct {
	Message MessageBody `json:"message"`
	Context ContextBody `json:"context"`
	Model   string      `json:"model,omitempty"`
}

// MessageBody carries the user's text.
type MessageBody struct {
	Content string `json:"content"`
}

// ContextBody carries the conversation's system prompt.
type ContextBody struct {
	CustomPrompt string `json:"customPrompt,omitempty"`
}

// BuildSendRequest assembles a send body. The prompt is trimmed and omitted
// when empty; model is omitted when none is selected.
func BuildSendRequest(text, systemPrompt, modelID string) SendRequest {
	return SendRequest{
		Message: MessageBody{Content: text},
		Context: ContextBody{CustomPrompt: strings.TrimSpace(systemPrompt)},
		Model:   strings.TrimSpace(modelID),
	}
}

type sendData struct {
	Response *struct {
		Content string `json:"content"`
	} `json:"response"`
}

type modelsData struct {
	Models []model.ModelInfo `json:"models"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Requester is the authenticated request primitive (auth.Provider).
type Requester interface {
	Request(ctx context.Context, path string, opts auth.RequestOptions) (*auth.Response, error)
	RequestWithToken(ctx context.Context, token, path string, opts auth.RequestOptions) (*auth.Response, error)
}

// Client wraps the chat endpoints.
type Client struct {
	req Requester
	log *zap.Logger
}

// NewClient creates a client over an authenticated requester.
func NewClient(req Requester, logger *zap.Logger) *Client {
	return &Client{req: req, log: logging.OrNop(logger).Named("api")}
}

// Send posts one message with an explicitly captured token and returns the
// assistant's reply.
func (c *Client) Send(ctx context.Context, token string, req SendRequest) (string, error) {
	resp, err := c.req.RequestWithToken(ctx, token, PathSend, auth.RequestOptions{
		Method: http.MethodPost,
		Body:   req,
	})
	if err != nil {
		return "", err
	}

	var data sendData
	if err := resp.Decode(&data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if data.Response == nil || data.Response.Content == "" {
		return "", ErrMalformedResponse
	}
	return data.Response.Content, nil
}

// Models returns the server's model catalogue.
func (c *Client) Models(ctx context.Context) ([]model.ModelInfo, error) {
	resp, err := c.req.Request(ctx, PathModels, auth.RequestOptions{})
	if err != nil {
		return nil, err
	}
	var data modelsData
	if err := resp.Decode(&data); err != nil {
		return nil, err
	}
	if data.Models == nil {
		data.Models = []model.ModelInfo{}
	}
	return data.Models, nil
}

// ModelsOrEmpty is Models with failures logged and degraded to an empty list.
func (c *Client) ModelsOrEmpty(ctx context.Context) []model.ModelInfo {
	models, err := c.Models(ctx)
	if err != nil {
		c.log.Warn("failed to fetch models", zap.Error(err))
		return []model.ModelInfo{}
	}
	return models
}

// =============================================================================
// CREDITS
// =============================================================================

// Credits is the account balance indicator.
type Credits struct {
	Value float64
	Known bool
}

// Unlimited reports the -1 sentinel.
func (c Credits) Unlimited() bool {
	return c.Known && c.Value == -1
}

// String renders the balance: "unlimited" for -1, whole numbers without
// decimals, otherwise up to three decimals with trailing zeros trimmed.
func (c Credits) String() string {
	if !c.Known {
		return "?"
	}
	return FormatCredits(c.Value)
}

// FormatCredits formats a raw credit value.
func FormatCredits(v float64) string {
	if v == -1 {
		return "unlimited"
	}
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Credits fetches the profile and extracts the balance.
func (c *Client) Credits(ctx context.Context) (Credits, error) {
	resp, err := c.req.Request(ctx, PathProfile, auth.RequestOptions{})
	if err != nil {
		return Credits{}, err
	}
	var u auth.User
	if err := resp.Decode(&u); err != nil {
		return Credits{}, err
	}
	if u.Credits == nil {
		return Credits{}, nil
	}
	return Credits{Value: *u.Credits, Known: true}, nil
}
