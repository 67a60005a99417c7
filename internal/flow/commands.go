package flow

import (
	"time"

	"posflow/internal/model"
)

// OrderingCommands edits the cart.
type OrderingCommands interface {
	InitializeOrdering()
	ClearOrdering()
	AddItem(item model.Item) string
	UpdateItemQuantity(id string, quantity int)
	RemoveItem(id string)
	SetItemNote(id, note string)
	SetTable(t model.Table)
	ClearTable()
	SetOrderType(t model.OrderType)
	SetPickupTime(at time.Time)
	AttachVoucher(v model.Voucher)
	DetachVoucher()
	SetNote(note string)
	SetDeliveryAddress(address, placeID string)
	SetDeliveryPhone(phone string)
	SetDeliveryCoordinates(lat, lng float64)
	SetOwner(o model.Owner)
	ClearOwner()
	SetPaymentMethod(method string)
}

// PaymentCommands drives an order that is waiting to be paid.
type PaymentCommands interface {
	TransitionToPayment(p PaymentInit) error
	SetPaymentMethodForOrder(method string)
	SetQRCode(payload string)
	InvalidateQRCode()
	InvalidateQRCodeFor(orderID string) bool
	RefreshPaymentOrder(o *model.Order)
	CompletePayment()
	SettlePayment(orderID string) bool
	TransitionBackToOrdering()
}

// UpdatingCommands edits an order that was already placed.
type UpdatingCommands interface {
	InitializeUpdating(o *model.Order) error
	TransitionToUpdating(o *model.Order) error
	AddDraftItem(item model.Item) string
	RemoveDraftItem(id string)
	UpdateDraftItemQuantity(id string, quantity int)
	SetDraftItemNote(id, note string)
	AddDraftNote(note string)
	SetDraftVoucher(v *model.Voucher)
	SetDraftType(t model.OrderType)
	SetDraftTable(t *model.Table)
	SetDraftPickupTime(at *time.Time)
	SetDraftDeliveryAddress(address, placeID string)
	SetDraftDeliveryPhone(phone string)
	SetDraftDeliveryCoordinates(lat, lng float64)
	SetDraftOwner(o model.Owner)
	ResetDraftToOriginal()
	DiscardUpdating()
	CompleteUpdating()
	HandleExpire(orderID string)
}

var (
	_ OrderingCommands = (*Machine)(nil)
	_ PaymentCommands  = (*Machine)(nil)
	_ UpdatingCommands = (*Machine)(nil)
)
