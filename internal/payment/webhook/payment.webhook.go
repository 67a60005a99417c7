// Package webhook receives asynchronous payment confirmations from the
// payment provider and applies them to the order flow.
package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"posflow/internal/logger"

	"go.uber.org/zap"
)

const TokenHeader = "x-callback-token"

// WebhookPayload is the callback body. ExternalID carries our order id.
type WebhookPayload struct {
	ID         string  `json:"id"`
	ExternalID string  `json:"external_id"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	PaidAt     string  `json:"paid_at,omitempty"`
}

type Flow interface {
	SettlePayment(orderID string) bool
	InvalidateQRCodeFor(orderID string) bool
}

type Handler struct {
	Flow  Flow
	token string
}

// NewWebhookHandler verifies callbacks against token. An empty token disables
// verification, which is only meant for local development.
func NewWebhookHandler(f Flow, token string) *Handler {
	if token == "" {
		logger.L().Warn("payment callback token is empty, callbacks are not verified")
	}
	return &Handler{Flow: f, token: token}
}

func (h *Handler) verify(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got := r.Header.Get(TokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "webhook"),
		zap.String("method", "WebhookHandler"),
	)

	if !h.verify(r) {
		log.Warn("rejected payment callback with bad token")
		http.Error(w, "invalid callback token", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if payload.ExternalID == "" {
		http.Error(w, "missing external_id", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("order_id", payload.ExternalID),
		zap.String("status", payload.Status),
	)

	// Callbacks for an order the terminal is no longer paying are still
	// acknowledged so the provider stops retrying.
	switch payload.Status {
	case "PAID", "SETTLED":
		if h.Flow.SettlePayment(payload.ExternalID) {
			log.Info("payment settled")
		} else {
			log.Info("payment callback for inactive order ignored")
		}
	case "EXPIRED", "FAILED":
		if h.Flow.InvalidateQRCodeFor(payload.ExternalID) {
			log.Info("payment QR invalidated")
		}
	default:
		log.Debug("payment callback status ignored")
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}
