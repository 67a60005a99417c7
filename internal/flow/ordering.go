package flow

import (
	"time"

	"posflow/internal/model"

	"go.uber.org/zap"
)

// InitializeOrdering makes the cart the active phase. An existing cart is kept.
func (m *Machine) InitializeOrdering() {
	m.transition("InitializeOrdering", &OrderingData{}, func(s State) bool {
		return s.Ordering() == nil
	})
}

// TransitionBackToOrdering leaves payment or editing for a fresh, empty cart.
func (m *Machine) TransitionBackToOrdering() {
	m.transition("TransitionBackToOrdering", &OrderingData{}, nil)
}

// ClearOrdering drops the cart, e.g. after cancel.
func (m *Machine) ClearOrdering() {
	m.transition("ClearOrdering", nil, func(s State) bool {
		return s.Ordering() != nil
	})
}

func (m *Machine) ordering(method string, fn func(d *OrderingData) bool) bool {
	return update(m, method, fn, m.guardOrdering)
}

// AddItem appends a new line with a fresh id and returns that id. Lines of the
// same product are never merged so each keeps its own note. When no phase is
// active the cart is created first.
func (m *Machine) AddItem(item model.Item) string {
	if item.Quantity < 1 {
		return ""
	}

	m.transition("AddItem", &OrderingData{}, func(s State) bool {
		return s.Phase == nil
	})

	id := m.newID()
	added := m.ordering("AddItem", func(d *OrderingData) bool {
		it := item.Clone()
		it.ID = id
		d.Items = append(d.Items, it)
		return true
	})
	if !added {
		return ""
	}

	m.log.Debug("item added",
		zap.String("method", "AddItem"),
		zap.String("item_id", id),
		zap.String("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
	)
	return id
}

func (m *Machine) UpdateItemQuantity(id string, quantity int) {
	if quantity < 1 {
		return
	}
	m.ordering("UpdateItemQuantity", func(d *OrderingData) bool {
		i := model.IndexOf(d.Items, id)
		if i < 0 || d.Items[i].Quantity == quantity {
			return false
		}
		d.Items[i].Quantity = quantity
		return true
	})
}

func (m *Machine) RemoveItem(id string) {
	m.ordering("RemoveItem", func(d *OrderingData) bool {
		i := model.IndexOf(d.Items, id)
		if i < 0 {
			return false
		}
		d.Items = append(d.Items[:i], d.Items[i+1:]...)
		return true
	})
}

func (m *Machine) SetItemNote(id, note string) {
	m.ordering("SetItemNote", func(d *OrderingData) bool {
		i := model.IndexOf(d.Items, id)
		if i < 0 {
			return false
		}
		d.Items[i].Note = note
		return true
	})
}

// SetTable seats the cart at a table, which makes it a dine-in order.
func (m *Machine) SetTable(t model.Table) {
	m.ordering("SetTable", func(d *OrderingData) bool {
		d.Table = &t
		d.Type = model.OrderTypeDineIn
		d.Delivery = model.Delivery{}
		d.PickupTime = nil
		return true
	})
}

// ClearTable removes the table and any delivery fields with it.
func (m *Machine) ClearTable() {
	m.ordering("ClearTable", func(d *OrderingData) bool {
		d.Table = nil
		d.Delivery = model.Delivery{}
		return true
	})
}

func (m *Machine) SetOrderType(t model.OrderType) {
	m.ordering("SetOrderType", func(d *OrderingData) bool {
		d.Type = t
		applyOrderType(t, &d.Table, &d.PickupTime, &d.Delivery)
		return true
	})
}

func (m *Machine) SetPickupTime(at time.Time) {
	m.ordering("SetPickupTime", func(d *OrderingData) bool {
		d.PickupTime = &at
		return true
	})
}

// AttachVoucher replaces any voucher already on the cart.
func (m *Machine) AttachVoucher(v model.Voucher) {
	m.ordering("AttachVoucher", func(d *OrderingData) bool {
		d.Voucher = v.Clone()
		return true
	})
}

func (m *Machine) DetachVoucher() {
	m.ordering("DetachVoucher", func(d *OrderingData) bool {
		if d.Voucher == nil {
			return false
		}
		d.Voucher = nil
		return true
	})
}

func (m *Machine) SetNote(note string) {
	m.ordering("SetNote", func(d *OrderingData) bool {
		d.Note = note
		return true
	})
}

func (m *Machine) SetDeliveryAddress(address, placeID string) {
	m.ordering("SetDeliveryAddress", func(d *OrderingData) bool {
		d.Delivery.Address = address
		d.Delivery.PlaceID = placeID
		return true
	})
}

func (m *Machine) SetDeliveryPhone(phone string) {
	m.ordering("SetDeliveryPhone", func(d *OrderingData) bool {
		d.Delivery.Phone = phone
		return true
	})
}

func (m *Machine) SetDeliveryCoordinates(lat, lng float64) {
	m.ordering("SetDeliveryCoordinates", func(d *OrderingData) bool {
		d.Delivery.Lat = lat
		d.Delivery.Lng = lng
		return true
	})
}

func (m *Machine) SetOwner(o model.Owner) {
	m.ordering("SetOwner", func(d *OrderingData) bool {
		d.Owner = o
		return true
	})
}

// ClearOwner makes the cart anonymous; identity-restricted vouchers fall off.
func (m *Machine) ClearOwner() {
	m.ordering("ClearOwner", func(d *OrderingData) bool {
		d.Owner = model.Owner{}
		return true
	})
}

func (m *Machine) SetPaymentMethod(method string) {
	m.ordering("SetPaymentMethod", func(d *OrderingData) bool {
		d.PaymentMethod = method
		return true
	})
}

// applyOrderType clears the fields the new order type excludes.
func applyOrderType(t model.OrderType, table **model.Table, pickup **time.Time, delivery *model.Delivery) {
	switch t {
	case model.OrderTypeDineIn:
		*pickup = nil
		*delivery = model.Delivery{}
	case model.OrderTypeTakeOut:
		*table = nil
		*delivery = model.Delivery{}
	case model.OrderTypeDelivery:
		*table = nil
	}
}
