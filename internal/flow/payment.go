package flow

import (
	"posflow/internal/model"

	"go.uber.org/zap"
)

// PaymentInit is what the server handed back after accepting an order.
type PaymentInit struct {
	OrderID string
	Method  string
	Order   *model.Order
}

// TransitionToPayment moves a created order into the payment phase. The cart
// is dropped with it.
func (m *Machine) TransitionToPayment(p PaymentInit) error {
	if p.OrderID == "" {
		m.log.Warn("payment transition without order id", zap.String("method", "TransitionToPayment"))
		return ErrMissingOrderID
	}
	m.transition("TransitionToPayment", &PaymentData{
		OrderID: p.OrderID,
		Method:  p.Method,
		Order:   p.Order.Clone(),
	}, nil)
	return nil
}

func (m *Machine) payment(method string, fn func(d *PaymentData) bool) bool {
	return update(m, method, fn, nil)
}

// SetPaymentMethodForOrder switches the method of the pending payment. Any QR
// code issued for the previous method stops being valid.
func (m *Machine) SetPaymentMethodForOrder(method string) {
	m.payment("SetPaymentMethodForOrder", func(d *PaymentData) bool {
		if d.Method == method {
			return false
		}
		d.Method = method
		d.QRValid = false
		return true
	})
}

func (m *Machine) SetQRCode(payload string) {
	m.payment("SetQRCode", func(d *PaymentData) bool {
		d.QRCode = payload
		d.QRValid = payload != ""
		return true
	})
}

func (m *Machine) InvalidateQRCode() {
	m.payment("InvalidateQRCode", func(d *PaymentData) bool {
		if !d.QRValid {
			return false
		}
		d.QRValid = false
		return true
	})
}

// InvalidateQRCodeFor invalidates the QR code only if the payment belongs to
// orderID. It reports whether a valid code was invalidated.
func (m *Machine) InvalidateQRCodeFor(orderID string) bool {
	return m.payment("InvalidateQRCodeFor", func(d *PaymentData) bool {
		if d.OrderID != orderID || !d.QRValid {
			return false
		}
		d.QRValid = false
		return true
	})
}

// RefreshPaymentOrder stores the latest server snapshot of the order being
// paid. Snapshots for another order are ignored.
func (m *Machine) RefreshPaymentOrder(o *model.Order) {
	if o == nil {
		return
	}
	m.payment("RefreshPaymentOrder", func(d *PaymentData) bool {
		if o.ID != "" && o.ID != d.OrderID {
			return false
		}
		d.Order = o.Clone()
		return true
	})
}

// CompletePayment ends the flow once the payment is confirmed.
func (m *Machine) CompletePayment() {
	m.transition("CompletePayment", nil, func(s State) bool {
		return s.Payment() != nil
	})
}

// SettlePayment completes the payment only if it belongs to orderID, for
// confirmations that arrive asynchronously. It reports whether the flow ended.
func (m *Machine) SettlePayment(orderID string) bool {
	return m.transition("SettlePayment", nil, func(s State) bool {
		p := s.Payment()
		return p != nil && p.OrderID == orderID
	})
}
