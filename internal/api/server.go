// Package api exposes the order-flow state container to the terminal UI over
// HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"posflow/internal/backend"
	"posflow/internal/checkout"
	"posflow/internal/flow"
	"posflow/internal/logger"
	"posflow/internal/metrics"
	"posflow/internal/model"
	"posflow/internal/payment"
	"posflow/internal/pricing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Machine interface {
	State() flow.State
	ClearAll()
	flow.OrderingCommands
	flow.PaymentCommands
	flow.UpdatingCommands
}

type Checkout interface {
	QuoteCart(points int64) (pricing.Quote, error)
	SubmitOrder(ctx context.Context, points int64) (*backend.CreateOrderResponse, error)
	PreviewUpdate() (*checkout.UpdatePreview, error)
	SubmitUpdate(ctx context.Context) (*model.Order, error)
}

type OrderFetcher interface {
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

// Watcher follows an order being edited for server-side changes.
type Watcher interface {
	Watch(ctx context.Context, orderID string)
	Stop()
}

// Timer bounds how long an order may be edited.
type Timer interface {
	Start(orderID string, createdAt time.Time) time.Duration
	Stop()
}

type Deps struct {
	Machine     Machine
	Checkout    Checkout
	Orders      OrderFetcher
	Watcher     Watcher
	Timer       Timer
	Notices     *Notices
	Metrics     *metrics.Recorder
	Webhook     http.HandlerFunc
	Now         func() time.Time
	Context     context.Context
	DeliveryFee int64
}

type Server struct {
	machine     Machine
	checkout    Checkout
	orders      OrderFetcher
	watcher     Watcher
	timer       Timer
	notices     *Notices
	metrics     *metrics.Recorder
	webhook     http.HandlerFunc
	now         func() time.Time
	ctx         context.Context
	deliveryFee int64
}

func NewServer(d Deps) *Server {
	s := &Server{
		machine:     d.Machine,
		checkout:    d.Checkout,
		orders:      d.Orders,
		watcher:     d.Watcher,
		timer:       d.Timer,
		notices:     d.Notices,
		metrics:     d.Metrics,
		webhook:     d.Webhook,
		now:         d.Now,
		ctx:         d.Context,
		deliveryFee: d.DeliveryFee,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.notices == nil {
		s.notices = NewNotices()
	}
	return s
}

// Routes builds the router. Cross-cutting middleware is added by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.Health)
	r.Get("/state", s.GetState)
	r.Post("/reset", s.Reset)
	r.Get("/notices", s.DrainNotices)
	r.Get("/payment-methods", s.ListPaymentMethods)

	r.Route("/cart", func(r chi.Router) {
		r.Post("/", s.InitializeCart)
		r.Delete("/", s.ClearCart)
		r.Get("/quote", s.QuoteCart)
		r.Post("/items", s.AddItem)
		r.Patch("/items/{itemID}", s.UpdateItem)
		r.Delete("/items/{itemID}", s.RemoveItem)
		r.Put("/table", s.SetTable)
		r.Delete("/table", s.ClearTable)
		r.Put("/type", s.SetOrderType)
		r.Put("/pickup", s.SetPickupTime)
		r.Put("/delivery", s.SetDelivery)
		r.Put("/voucher", s.AttachVoucher)
		r.Delete("/voucher", s.DetachVoucher)
		r.Put("/note", s.SetNote)
		r.Put("/owner", s.SetOwner)
		r.Put("/owner/me", s.SetOwnerFromToken)
		r.Delete("/owner", s.ClearOwner)
		r.Put("/payment-method", s.SetPaymentMethod)
	})
	r.Post("/checkout/submit", s.SubmitOrder)

	r.Route("/payment", func(r chi.Router) {
		r.Put("/method", s.SetPaymentMethodForOrder)
		r.Put("/qr", s.SetQRCode)
		r.Delete("/qr", s.InvalidateQRCode)
		r.Get("/instructions", s.PaymentInstructions)
		r.Post("/back", s.BackToOrdering)
		r.Post("/complete", s.CompletePayment)
	})

	r.Post("/orders/{orderID}/edit", s.EditOrder)
	r.Route("/draft", func(r chi.Router) {
		r.Delete("/", s.DiscardDraft)
		r.Get("/preview", s.PreviewDraft)
		r.Post("/reset", s.ResetDraft)
		r.Post("/submit", s.SubmitDraft)
		r.Post("/items", s.AddDraftItem)
		r.Patch("/items/{itemID}", s.UpdateDraftItem)
		r.Delete("/items/{itemID}", s.RemoveDraftItem)
		r.Put("/note", s.SetDraftNote)
		r.Put("/voucher", s.SetDraftVoucher)
		r.Delete("/voucher", s.ClearDraftVoucher)
		r.Put("/type", s.SetDraftType)
		r.Put("/table", s.SetDraftTable)
		r.Delete("/table", s.ClearDraftTable)
		r.Put("/pickup", s.SetDraftPickupTime)
		r.Put("/delivery", s.SetDraftDelivery)
		r.Put("/owner", s.SetDraftOwner)
	})

	if s.metrics != nil {
		r.Get("/metrics", s.Metrics)
	}
	if s.webhook != nil {
		r.Post("/webhook/payment", s.webhook)
	}
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.machine.State())
}

// Reset drops every phase and stops background work tied to an edit.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.stopEditing()
	s.machine.ClearAll()
	writeJSON(w, r, http.StatusOK, s.machine.State())
}

func (s *Server) DrainNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.notices.Drain())
}

func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.metrics.Snapshot())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromCtx(r.Context()).Error("failed to encode JSON response",
			zap.String("layer", "api"),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "api"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidBody),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidOrderType),
		errors.Is(err, payment.ErrUnknownMethod):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoCart),
		errors.Is(err, ErrNotPaying),
		errors.Is(err, ErrNotEditing),
		errors.Is(err, ErrMutationLost),
		errors.Is(err, ErrEditWindowClosed),
		errors.Is(err, ErrNotEditable),
		errors.Is(err, checkout.ErrNoCart),
		errors.Is(err, checkout.ErrNotEditing):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoChanges),
		errors.Is(err, payment.ErrInvalidQR):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrRejected),
		errors.Is(err, checkout.ErrEmptyResult):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}

// phaseErr maps a step to the error reported when a request needs it.
func phaseErr(step flow.Step) error {
	switch step {
	case flow.StepOrdering:
		return ErrNoCart
	case flow.StepPayment:
		return ErrNotPaying
	default:
		return ErrNotEditing
	}
}

// active reports whether step holds a phase. An idle state reports the
// ordering step but has no cart.
func active(st flow.State, step flow.Step) bool {
	return st.Phase != nil && st.Step() == step
}

// mutate runs fn when step is active and answers with the resulting state.
// Mutators ignore calls for an inactive phase, so the step is checked both
// before and after.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, step flow.Step, fn func()) {
	if !active(s.machine.State(), step) {
		writeError(w, r, phaseErr(step))
		return
	}
	fn()
	st := s.machine.State()
	if !active(st, step) {
		writeError(w, r, ErrMutationLost)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
