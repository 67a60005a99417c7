package flow

import (
	"reflect"
	"time"

	"posflow/internal/model"

	"go.uber.org/zap"
)

// InitializeUpdating opens an order for editing. The draft starts as a copy of
// the order; lines without a server id get one, and the ids are kept on the
// stored original too so the two can always be correlated.
func (m *Machine) InitializeUpdating(o *model.Order) error {
	return m.beginUpdating("InitializeUpdating", o)
}

// TransitionToUpdating leaves the current phase for editing the given order.
func (m *Machine) TransitionToUpdating(o *model.Order) error {
	return m.beginUpdating("TransitionToUpdating", o)
}

func (m *Machine) beginUpdating(method string, o *model.Order) error {
	if o == nil {
		m.log.Warn("updating transition without order", zap.String("method", method))
		return ErrMissingOriginalOrder
	}

	original := m.normalize(o)
	m.transition(method, &UpdatingData{
		OriginalOrder: original,
		Draft:         original.Clone(),
	}, nil)
	return nil
}

// normalize copies o, filling missing line ids and defaulting optional fields.
func (m *Machine) normalize(o *model.Order) *model.Order {
	out := o.Clone()
	for i := range out.Items {
		if out.Items[i].ID == "" {
			out.Items[i].ID = m.newID()
		}
	}
	if out.Status == "" {
		out.Status = model.StatusPending
	}
	if out.Type == "" {
		switch {
		case out.Table != nil:
			out.Type = model.OrderTypeDineIn
		case !out.Delivery.IsZero():
			out.Type = model.OrderTypeDelivery
		default:
			out.Type = model.OrderTypeTakeOut
		}
	}
	return out
}

func (m *Machine) updating(method string, fn func(d *model.Order) bool) bool {
	return update(m, method, func(d *UpdatingData) bool {
		return fn(d.Draft)
	}, m.guardDraft)
}

// AddDraftItem appends a new line to the draft and returns its id.
func (m *Machine) AddDraftItem(item model.Item) string {
	if item.Quantity < 1 {
		return ""
	}
	id := m.newID()
	added := m.updating("AddDraftItem", func(d *model.Order) bool {
		it := item.Clone()
		it.ID = id
		d.Items = append(d.Items, it)
		return true
	})
	if !added {
		return ""
	}
	return id
}

func (m *Machine) RemoveDraftItem(id string) {
	m.updating("RemoveDraftItem", func(d *model.Order) bool {
		i := model.IndexOf(d.Items, id)
		if i < 0 {
			return false
		}
		d.Items = append(d.Items[:i], d.Items[i+1:]...)
		return true
	})
}

func (m *Machine) UpdateDraftItemQuantity(id string, quantity int) {
	if quantity < 1 {
		return
	}
	m.updating("UpdateDraftItemQuantity", func(d *model.Order) bool {
		i := model.IndexOf(d.Items, id)
		if i < 0 || d.Items[i].Quantity == quantity {
			return false
		}
		d.Items[i].Quantity = quantity
		return true
	})
}

func (m *Machine) SetDraftItemNote(id, note string) {
	m.updating("SetDraftItemNote", func(d *model.Order) bool {
		i := model.IndexOf(d.Items, id)
		if i < 0 {
			return false
		}
		d.Items[i].Note = note
		return true
	})
}

func (m *Machine) AddDraftNote(note string) {
	m.updating("AddDraftNote", func(d *model.Order) bool {
		d.Note = note
		return true
	})
}

// SetDraftVoucher replaces the draft voucher; nil removes it.
func (m *Machine) SetDraftVoucher(v *model.Voucher) {
	m.updating("SetDraftVoucher", func(d *model.Order) bool {
		d.Voucher = v.Clone()
		return true
	})
}

func (m *Machine) SetDraftType(t model.OrderType) {
	m.updating("SetDraftType", func(d *model.Order) bool {
		d.Type = t
		applyOrderType(t, &d.Table, &d.PickupTime, &d.Delivery)
		return true
	})
}

// SetDraftTable seats the draft at t, or unseats it when t is nil.
func (m *Machine) SetDraftTable(t *model.Table) {
	m.updating("SetDraftTable", func(d *model.Order) bool {
		d.Table = model.CloneTable(t)
		if t != nil {
			d.Type = model.OrderTypeDineIn
			d.PickupTime = nil
		}
		d.Delivery = model.Delivery{}
		return true
	})
}

func (m *Machine) SetDraftPickupTime(at *time.Time) {
	m.updating("SetDraftPickupTime", func(d *model.Order) bool {
		d.PickupTime = model.CloneTime(at)
		return true
	})
}

func (m *Machine) SetDraftDeliveryAddress(address, placeID string) {
	m.updating("SetDraftDeliveryAddress", func(d *model.Order) bool {
		d.Delivery.Address = address
		d.Delivery.PlaceID = placeID
		return true
	})
}

func (m *Machine) SetDraftDeliveryPhone(phone string) {
	m.updating("SetDraftDeliveryPhone", func(d *model.Order) bool {
		d.Delivery.Phone = phone
		return true
	})
}

func (m *Machine) SetDraftDeliveryCoordinates(lat, lng float64) {
	m.updating("SetDraftDeliveryCoordinates", func(d *model.Order) bool {
		d.Delivery.Lat = lat
		d.Delivery.Lng = lng
		return true
	})
}

func (m *Machine) SetDraftOwner(o model.Owner) {
	m.updating("SetDraftOwner", func(d *model.Order) bool {
		d.Owner = o
		return true
	})
}

// ResetDraftToOriginal throws away every edit.
func (m *Machine) ResetDraftToOriginal() {
	update(m, "ResetDraftToOriginal", func(d *UpdatingData) bool {
		d.Draft = d.OriginalOrder.Clone()
		d.HasChanges = false
		return true
	}, nil)
}

// DiscardUpdating drops both the draft and the original; the next edit starts
// from a fresh fetch.
func (m *Machine) DiscardUpdating() {
	m.transition("DiscardUpdating", nil, func(s State) bool {
		return s.Updating() != nil
	})
}

// CompleteUpdating ends editing after the server accepted the draft.
func (m *Machine) CompleteUpdating() {
	m.transition("CompleteUpdating", nil, func(s State) bool {
		return s.Updating() != nil
	})
}

// HandleExpire is called when the edit window of an order closes. An empty id
// matches whatever order is being edited.
func (m *Machine) HandleExpire(orderID string) {
	m.transition("HandleExpire", nil, func(s State) bool {
		d := s.Updating()
		return d != nil && (orderID == "" || d.OriginalOrder.ID == orderID)
	})
}

// draftChanged compares the draft with the original by value.
func (m *Machine) draftChanged(d *UpdatingData) bool {
	return !reflect.DeepEqual(canonical(d.OriginalOrder), canonical(d.Draft))
}

// canonical strips representation differences that carry no meaning: an
// empty item list versus none, and the location of timestamps.
func canonical(o *model.Order) *model.Order {
	if o == nil {
		return nil
	}
	out := o.Clone()
	if len(out.Items) == 0 {
		out.Items = nil
	}
	if out.PickupTime != nil {
		t := out.PickupTime.UTC()
		out.PickupTime = &t
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	if out.Voucher != nil {
		out.Voucher.StartDate = out.Voucher.StartDate.UTC()
		out.Voucher.EndDate = out.Voucher.EndDate.UTC()
		if len(out.Voucher.ProductIDs) == 0 {
			out.Voucher.ProductIDs = nil
		}
		if len(out.Voucher.PaymentMethods) == 0 {
			out.Voucher.PaymentMethods = nil
		}
	}
	return out
}
