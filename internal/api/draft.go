package api

import (
	"net/http"
	"time"

	"posflow/internal/countdown"
	"posflow/internal/flow"
	"posflow/internal/logger"
	"posflow/internal/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type editResponse struct {
	RemainingSeconds int64      `json:"remainingSeconds"`
	State            flow.State `json:"state"`
}

// EditOrder fetches a placed order and opens it for editing. Polling and the
// edit countdown start with it.
func (s *Server) EditOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "api"),
		zap.String("method", "EditOrder"),
		zap.String("order_id", id),
	)

	o, err := s.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if o.Status != "" && o.Status != model.StatusPending {
		writeError(w, r, ErrNotEditable)
		return
	}
	if countdown.Expired(o.CreatedAt, s.now()) {
		writeError(w, r, ErrEditWindowClosed)
		return
	}

	if err := s.machine.InitializeUpdating(o); err != nil {
		writeError(w, r, err)
		return
	}
	if s.watcher != nil {
		s.watcher.Watch(s.ctx, id)
	}
	var left time.Duration
	if s.timer != nil {
		left = s.timer.Start(id, o.CreatedAt)
	}

	log.Info("order opened for editing", zap.Duration("remaining", left))
	writeJSON(w, r, http.StatusOK, editResponse{
		RemainingSeconds: int64(left / time.Second),
		State:            s.machine.State(),
	})
}

func (s *Server) stopEditing() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Server) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if !active(s.machine.State(), flow.StepUpdating) {
		writeError(w, r, ErrNotEditing)
		return
	}
	s.stopEditing()
	s.machine.DiscardUpdating()
	writeJSON(w, r, http.StatusOK, s.machine.State())
}

func (s *Server) PreviewDraft(w http.ResponseWriter, r *http.Request) {
	p, err := s.checkout.PreviewUpdate()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) ResetDraft(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepUpdating, s.machine.ResetDraftToOriginal)
}

func (s *Server) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	o, err := s.checkout.SubmitUpdate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.stopEditing()
	writeJSON(w, r, http.StatusOK, struct {
		Order *model.Order `json:"order"`
		State flow.State   `json:"state"`
	}{o, s.machine.State()})
}

func (s *Server) AddDraftItem(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := decode(r, &it); err != nil {
		writeError(w, r, err)
		return
	}
	if it.Quantity < 1 {
		writeError(w, r, ErrInvalidQuantity)
		return
	}

	id := s.machine.AddDraftItem(it)
	if id == "" {
		writeError(w, r, ErrNotEditing)
		return
	}
	writeJSON(w, r, http.StatusCreated, addedResponse{ID: id, State: s.machine.State()})
}

func (s *Server) UpdateDraftItem(w http.ResponseWriter, r *http.Request) {
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

	s.mutate(w, r, flow.StepUpdating, func() {
		if p.Quantity != nil {
			s.machine.UpdateDraftItemQuantity(id, *p.Quantity)
		}
		if p.Note != nil {
			s.machine.SetDraftItemNote(id, *p.Note)
		}
	})
}

func (s *Server) RemoveDraftItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.RemoveDraftItem(id) })
}

func (s *Server) SetDraftNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.AddDraftNote(req.Note) })
}

func (s *Server) SetDraftVoucher(w http.ResponseWriter, r *http.Request) {
	var v model.Voucher
	if err := decode(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftVoucher(&v) })
}

func (s *Server) ClearDraftVoucher(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftVoucher(nil) })
}

func (s *Server) SetDraftType(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !validType(req.Type) {
		writeError(w, r, ErrInvalidOrderType)
		return
	}
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftType(req.Type) })
}

func (s *Server) SetDraftTable(w http.ResponseWriter, r *http.Request) {
	var t model.Table
	if err := decode(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftTable(&t) })
}

func (s *Server) ClearDraftTable(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftTable(nil) })
}

// SetDraftPickupTime clears the pickup time when "at" is null.
func (s *Server) SetDraftPickupTime(w http.ResponseWriter, r *http.Request) {
	var req pickupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.At != nil {
		at := req.At.UTC()
		req.At = &at
	}
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftPickupTime(req.At) })
}

func (s *Server) SetDraftDelivery(w http.ResponseWriter, r *http.Request) {
	var d model.Delivery
	if err := decode(r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	s.mutate(w, r, flow.StepUpdating, func() {
		s.machine.SetDraftDeliveryAddress(d.Address, d.PlaceID)
		s.machine.SetDraftDeliveryPhone(d.Phone)
		s.machine.SetDraftDeliveryCoordinates(d.Lat, d.Lng)
	})
}

func (s *Server) SetDraftOwner(w http.ResponseWriter, r *http.Request) {
	var o model.Owner
	if err := decode(r, &o); err != nil {
		writeError(w, r, err)
		return
	}
	o.Authenticated = false
	s.mutate(w, r, flow.StepUpdating, func() { s.machine.SetDraftOwner(o) })
}
