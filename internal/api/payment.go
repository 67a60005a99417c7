package api

import (
	"net/http"

	"posflow/internal/flow"
	"posflow/internal/model"
	"posflow/internal/payment"
	"posflow/internal/pricing"
)

type qrRequest struct {
	Payload string `json:"payload"`
}

type instructionsResponse struct {
	Method payment.Method `json:"method"`
	Amount int64          `json:"amount"`
	Steps  []string       `json:"steps"`
}

func (s *Server) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, payment.Methods())
}

func (s *Server) SetPaymentMethodForOrder(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := payment.Lookup(req.Method); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepPayment, func() { s.machine.SetPaymentMethodForOrder(req.Method) })
}

// SetQRCode stores a QR payload issued for the pending order. Payloads that
// fail the QRIS checksum are refused.
func (s *Server) SetQRCode(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := payment.ValidateQR(req.Payload); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepPayment, func() { s.machine.SetQRCode(req.Payload) })
}

func (s *Server) InvalidateQRCode(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepPayment, s.machine.InvalidateQRCode)
}

// PaymentInstructions renders the steps for the pending order's method. The
// code issued with the order doubles as the transfer account number.
func (s *Server) PaymentInstructions(w http.ResponseWriter, r *http.Request) {
	p := s.machine.State().Payment()
	if p == nil {
		writeError(w, r, ErrNotPaying)
		return
	}

	m, err := payment.Lookup(p.Method)
	if err != nil {
		m = payment.Method{Code: p.Method, Name: p.Method}
	}

	var amount int64
	var code string
	if o := p.Order; o != nil {
		code = o.Code
		fee := int64(0)
		if o.Type == model.OrderTypeDelivery {
			fee = s.deliveryFee
		}
		amount = pricing.ComputeTotals(o.Items, o.Voucher, fee, 0).FinalTotal
	}

	writeJSON(w, r, http.StatusOK, instructionsResponse{
		Method: m,
		Amount: amount,
		Steps:  payment.Instructions(p.Method, amount, p.QRCode, code),
	})
}

func (s *Server) BackToOrdering(w http.ResponseWriter, r *http.Request) {
	if !active(s.machine.State(), flow.StepPayment) {
		writeError(w, r, ErrNotPaying)
		return
	}
	s.machine.TransitionBackToOrdering()
	writeJSON(w, r, http.StatusOK, s.machine.State())
}

func (s *Server) CompletePayment(w http.ResponseWriter, r *http.Request) {
	if !active(s.machine.State(), flow.StepPayment) {
		writeError(w, r, ErrNotPaying)
		return
	}
	s.machine.CompletePayment()
	writeJSON(w, r, http.StatusOK, s.machine.State())
}
