package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"posflow/internal/draft"
	"posflow/internal/logger"
	"posflow/internal/model"
	"posflow/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestClient_GetOrder(t *testing.T) {
	c := NewClient("https://orders.example.com/", "secret")

	t.Run("Success", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "https://orders.example.com/orders/o-1", req.URL.String())
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			assert.Equal(t, "req-1", req.Header.Get("X-Request-ID"))
			return jsonResponse(http.StatusOK, `{
				"id": "o-1",
				"status": "PENDING",
				"type": "DINE_IN",
				"items": [{"id": "line-1", "productId": "p1", "variantId": "v1", "originalPrice": 25000, "quantity": 2}]
			}`)
		})

		ctx := logger.WithRequestID(context.Background(), "req-1")
		o, err := c.GetOrder(ctx, "o-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, o.Status)
		require.Len(t, o.Items, 1)
		assert.Equal(t, int64(25000), o.Items[0].UnitPrice)
	})

	t.Run("NotFound", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusNotFound, `{"message":"no such order"}`)
		})

		o, err := c.GetOrder(context.Background(), "o-404")
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Nil(t, o)
	})

	t.Run("EmptyID", func(t *testing.T) {
		_, err := c.GetOrder(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyOrderID)
	})

	t.Run("NetworkError", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := c.GetOrder(context.Background(), "o-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{invalid`)
		})

		_, err := c.GetOrder(context.Background(), "o-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})
}

func TestClient_CreateOrder(t *testing.T) {
	c := NewClient("https://orders.example.com", "secret")
	req := CreateOrderRequest{
		Type:        model.OrderTypeTakeOut,
		Items:       []Line{{Quantity: 2, VariantID: "v1", PromotionID: "promo", Note: "iced"}},
		VoucherSlug: "HAPPY20",
		Totals:      pricing.Totals{SubtotalBeforeDiscount: 50000, FinalTotal: 45000},
	}

	t.Run("Success", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "HAPPY20", body["voucherCode"])
			lines := body["items"].([]any)
			line := lines[0].(map[string]any)
			assert.Equal(t, "v1", line["variant"])
			assert.Equal(t, "promo", line["promotion"])
			assert.EqualValues(t, 2, line["quantity"])

			return jsonResponse(http.StatusCreated, `{"id":"o-9","code":"A-009","status":"PENDING"}`)
		})

		res, err := c.CreateOrder(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "o-9", res.ID)
		assert.Equal(t, "A-009", res.Code)
	})

	t.Run("Rejected", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusUnprocessableEntity, `{"message":"voucher out of stock"}`)
		})

		res, err := c.CreateOrder(context.Background(), req)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "status 422")
		assert.Contains(t, err.Error(), "voucher out of stock")
	})

	t.Run("RejectedPlainText", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusBadGateway, "upstream down")
		})

		_, err := c.CreateOrder(context.Background(), req)
		assert.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "upstream down")
	})
}

func TestClient_UpdateOrder(t *testing.T) {
	var got UpdateOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/o-1", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"o-1","status":"PENDING","items":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	req := UpdateOrderRequest{
		CreateOrderRequest: CreateOrderRequest{
			Type:  model.OrderTypeDineIn,
			Items: []Line{{ID: "line-1", Quantity: 3, VariantID: "v1"}},
		},
		Changes: draft.ChangeSet{
			Items:      []draft.ItemChange{{Kind: draft.KindQuantityChanged, Key: "p1|v1|"}},
			HasChanges: true,
		},
	}

	o, err := c.UpdateOrder(context.Background(), "o-1", req)
	require.NoError(t, err)
	assert.Equal(t, "o-1", o.ID)
	assert.True(t, got.Changes.HasChanges)
	assert.Equal(t, "line-1", got.Items[0].ID)

	_, err = c.UpdateOrder(context.Background(), "", req)
	assert.ErrorIs(t, err, ErrEmptyOrderID)
}
