// Package backend talks to the order service: fetching orders for editing,
// creating new orders and submitting edits.
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

	"posflow/internal/logger"
	"posflow/internal/model"

	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	if token == "" {
		logger.L().Warn("backend token is empty")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ----------------- GetOrder -----------------

func (c *Client) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	if id == "" {
		return nil, ErrEmptyOrderID
	}
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "backend"),
		zap.String("method", "GetOrder"),
		zap.String("order_id", id),
	)

	var o model.Order
	status, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o)
	if status == http.StatusNotFound {
		log.Warn("order not found")
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("fetch order failed", zap.Error(err))
		return nil, err
	}
	return &o, nil
}

// ----------------- CreateOrder -----------------

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "backend"),
		zap.String("method", "CreateOrder"),
		zap.Int("lines", len(req.Items)),
		zap.Int64("final_total", req.Totals.FinalTotal),
	)

	var res CreateOrderResponse
	if _, err := c.do(ctx, http.MethodPost, "/orders", req, &res); err != nil {
		log.Error("create order failed", zap.Error(err))
		return nil, err
	}

	log.Info("order created", zap.String("order_id", res.ID), zap.String("code", res.Code))
	return &res, nil
}

// ----------------- UpdateOrder -----------------

func (c *Client) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (*model.Order, error) {
	if id == "" {
		return nil, ErrEmptyOrderID
	}
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "backend"),
		zap.String("method", "UpdateOrder"),
		zap.String("order_id", id),
	)

	var o model.Order
	if _, err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id), req, &o); err != nil {
		log.Error("update order failed", zap.Error(err))
		return nil, err
	}

	log.Info("order updated", zap.Int("changed_lines", len(req.Changes.Changed())))
	return &o, nil
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses come back as ErrRejected carrying the server message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(bodyBytes))
		var er errorResponse
		if json.Unmarshal(bodyBytes, &er) == nil && er.Message != "" {
			msg = er.Message
		}
		return resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
