package api

import (
	"net/http"
	"strconv"
	"time"

	"posflow/internal/auth"
	"posflow/internal/flow"
	"posflow/internal/model"
	"posflow/internal/payment"

	"github.com/go-chi/chi/v5"
)

type itemPatch struct {
	Quantity *int    `json:"quantity"`
	Note     *string `json:"note"`
}

type typeRequest struct {
	Type model.OrderType `json:"type"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type methodRequest struct {
	Method string `json:"method"`
}

type pickupRequest struct {
	At *time.Time `json:"at"`
}

type pointsRequest struct {
	Points int64 `json:"points"`
}

type addedResponse struct {
	ID    string     `json:"id"`
	State flow.State `json:"state"`
}

func validType(t model.OrderType) bool {
	switch t {
	case model.OrderTypeDineIn, model.OrderTypeTakeOut, model.OrderTypeDelivery:
		return true
	}
	return false
}

func (s *Server) InitializeCart(w http.ResponseWriter, r *http.Request) {
	st := s.machine.State()
	if st.Phase != nil && st.Step() != flow.StepOrdering {
		writeError(w, r, ErrNoCart)
		return
	}
	s.machine.InitializeOrdering()
	writeJSON(w, r, http.StatusOK, s.machine.State())
}

func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	if !active(s.machine.State(), flow.StepOrdering) {
		writeError(w, r, ErrNoCart)
		return
	}
	s.machine.ClearOrdering()
	writeJSON(w, r, http.StatusOK, s.machine.State())
}

func (s *Server) QuoteCart(w http.ResponseWriter, r *http.Request) {
	var points int64
	if v := r.URL.Query().Get("points"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, r, ErrInvalidBody)
			return
		}
		points = n
	}

	q, err := s.checkout.QuoteCart(points)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

// AddItem creates the cart when no phase is active.
func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := decode(r, &it); err != nil {
		writeError(w, r, err)
		return
	}
	if it.Quantity < 1 {
		writeError(w, r, ErrInvalidQuantity)
		return
	}

	id := s.machine.AddItem(it)
	if id == "" {
		writeError(w, r, ErrNoCart)
		return
	}
	writeJSON(w, r, http.StatusCreated, addedResponse{ID: id, State: s.machine.State()})
}

func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	var p itemPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Quantity != nil && *p.Quantity < 1 {
		writeError(w, r, ErrInvalidQuantity)
		return
	}

	s.mutate(w, r, flow.StepOrdering, func() {
		if p.Quantity != nil {
			s.machine.UpdateItemQuantity(id, *p.Quantity)
		}
		if p.Note != nil {
			s.machine.SetItemNote(id, *p.Note)
		}
	})
}

func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.RemoveItem(id) })
}

func (s *Server) SetTable(w http.ResponseWriter, r *http.Request) {
	var t model.Table
	if err := decode(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetTable(t) })
}

func (s *Server) ClearTable(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepOrdering, s.machine.ClearTable)
}

func (s *Server) SetOrderType(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !validType(req.Type) {
		writeError(w, r, ErrInvalidOrderType)
		return
	}
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetOrderType(req.Type) })
}

func (s *Server) SetPickupTime(w http.ResponseWriter, r *http.Request) {
	var req pickupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.At == nil {
		writeError(w, r, ErrInvalidBody)
		return
	}
	at := req.At.UTC()
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetPickupTime(at) })
}

func (s *Server) SetDelivery(w http.ResponseWriter, r *http.Request) {
	var d model.Delivery
	if err := decode(r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepOrdering, func() {
		s.machine.SetDeliveryAddress(d.Address, d.PlaceID)
		s.machine.SetDeliveryPhone(d.Phone)
		s.machine.SetDeliveryCoordinates(d.Lat, d.Lng)
	})
}

// AttachVoucher answers with the state even when the voucher was detached
// straight away; the reason is queued as a notice.
func (s *Server) AttachVoucher(w http.ResponseWriter, r *http.Request) {
	var v model.Voucher
	if err := decode(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.AttachVoucher(v) })
}

func (s *Server) DetachVoucher(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepOrdering, s.machine.DetachVoucher)
}

func (s *Server) SetNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetNote(req.Note) })
}

func (s *Server) SetOwner(w http.ResponseWriter, r *http.Request) {
	var o model.Owner
	if err := decode(r, &o); err != nil {
		writeError(w, r, err)
		return
	}
	// Only a verified token may mark an owner authenticated.
	o.Authenticated = false
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetOwner(o) })
}

// SetOwnerFromToken assigns the cart to the customer signed in on the terminal.
func (s *Server) SetOwnerFromToken(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, ErrUnauthenticated)
		return
	}
	o := c.Owner()
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetOwner(o) })
}

func (s *Server) ClearOwner(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepOrdering, s.machine.ClearOwner)
}

func (s *Server) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := payment.Lookup(req.Method); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepOrdering, func() { s.machine.SetPaymentMethod(req.Method) })
}

func (s *Server) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	res, err := s.checkout.SubmitOrder(r.Context(), req.Points)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, struct {
		Order any        `json:"order"`
		State flow.State `json:"state"`
	}{res, s.machine.State()})
}
