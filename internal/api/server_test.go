package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"posflow/internal/backend"
	"posflow/internal/checkout"
	"posflow/internal/flow"
	"posflow/internal/metrics"
	"posflow/internal/model"
	"posflow/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockBackend) CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*backend.CreateOrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.CreateOrderResponse), args.Error(1)
}

func (m *MockBackend) UpdateOrder(ctx context.Context, id string, req backend.UpdateOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

type MockWatcher struct {
	mock.Mock
}

func (m *MockWatcher) Watch(ctx context.Context, orderID string) { m.Called(ctx, orderID) }
func (m *MockWatcher) Stop()                                      { m.Called() }

type MockTimer struct {
	mock.Mock
}

func (m *MockTimer) Start(orderID string, createdAt time.Time) time.Duration {
	args := m.Called(orderID, createdAt)
	return args.Get(0).(time.Duration)
}

func (m *MockTimer) Stop() { m.Called() }

type harness struct {
	machine *flow.Machine
	metrics *metrics.Recorder
	backend *MockBackend
	watcher *MockWatcher
	timer   *MockTimer
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	notices := NewNotices()
	rec := metrics.NewRecorder(func() time.Time { return now })
	m := flow.New(
		flow.WithClock(func() time.Time { return now }),
		flow.WithLogger(zap.NewNop()),
		flow.WithObserver(rec.Observe),
		flow.WithNotifier(rec.Notifier(notices.Push)),
	)
	b := new(MockBackend)
	h := &harness{
		machine: m,
		metrics: rec,
		backend: b,
		watcher: new(MockWatcher),
		timer:   new(MockTimer),
	}
	s := NewServer(Deps{
		Machine:     m,
		Checkout:    checkout.NewService(b, m, 10000, checkout.WithClock(func() time.Time { return now })),
		Orders:      b,
		Watcher:     h.watcher,
		Timer:       h.timer,
		Notices:     notices,
		Metrics:     rec,
		Now:         func() time.Time { return now },
		DeliveryFee: 10000,
	})
	h.handler = s.Routes()
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return h.doWith(t, httptest.NewRequest(method, path, encode(t, body)))
}

func (h *harness) doWith(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func httptestRequest(method, path, body string) *http.Request {
	return httptest.NewRequest(method, path, strings.NewReader(body))
}

func encode(t *testing.T, body any) *bytes.Buffer {
	t.Helper()
	if body == nil {
		return &bytes.Buffer{}
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func coffee(qty int) model.Item {
	return model.Item{ProductID: "p1", VariantID: "v1", Name: "Latte", UnitPrice: 25000, Quantity: qty}
}

func activeVoucher() model.Voucher {
	return model.Voucher{
		ID:             "v-1",
		Slug:           "HAPPY10",
		Type:           model.VoucherPercentOrder,
		Value:          10,
		Rule:           model.RuleAtLeastOneRequired,
		ProductIDs:     []string{"p1"},
		RemainingUsage: 5,
		IsActive:       true,
		EndDate:        now.Add(24 * time.Hour),
	}
}

func signedQR() string {
	body := "000201" + "010212" + "540550000" + "5802ID" + "6304"
	return body + fmt.Sprintf("%04X", payment.CRC16(body))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStateAndReset(t *testing.T) {
	h := newHarness(t)
	h.machine.AddItem(coffee(1))
	h.watcher.On("Stop").Return()
	h.timer.On("Stop").Return()

	w := h.do(t, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeBody[flow.State](t, w)
	assert.Equal(t, flow.StepOrdering, st.Step())

	w = h.do(t, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, h.machine.State().Phase)
	h.watcher.AssertCalled(t, "Stop")
	h.timer.AssertCalled(t, "Stop")
}

func TestPaymentMethods(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/payment-methods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	methods := decodeBody[[]payment.Method](t, w)
	assert.Len(t, methods, len(payment.Methods()))
}

func TestMetrics(t *testing.T) {
	h := newHarness(t)
	h.machine.AddItem(coffee(1))

	w := h.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeBody[metrics.Snapshot](t, w)
	assert.Equal(t, flow.StepOrdering, snap.Step)
	assert.Equal(t, uint64(1), snap.Entered[flow.StepOrdering])
}
