package flow

import (
	"encoding/json"
	"time"

	"posflow/internal/model"
)

type Step string

const (
	StepOrdering Step = "ordering"
	StepPayment  Step = "payment"
	StepUpdating Step = "updating"
)

// Phase is the payload of the active step. Exactly one phase is reachable
// from a State, so data of an inactive step cannot be read.
type Phase interface {
	Step() Step
	clonePhase() Phase
}

// OrderingData is a cart that has not been submitted yet.
type OrderingData struct {
	Owner         model.Owner     `json:"owner"`
	Type          model.OrderType `json:"orderType"`
	Table         *model.Table    `json:"table,omitempty"`
	Delivery      model.Delivery  `json:"delivery"`
	PickupTime    *time.Time      `json:"pickupTime,omitempty"`
	Items         []model.Item    `json:"items"`
	Voucher       *model.Voucher  `json:"voucher,omitempty"`
	Note          string          `json:"note,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

func (*OrderingData) Step() Step { return StepOrdering }

func (d *OrderingData) clonePhase() Phase { return d.clone() }

func (d *OrderingData) clone() *OrderingData {
	out := *d
	out.Table = model.CloneTable(d.Table)
	out.PickupTime = model.CloneTime(d.PickupTime)
	out.Items = model.CloneItems(d.Items)
	out.Voucher = d.Voucher.Clone()
	return &out
}

// PaymentData tracks a submitted order awaiting payment confirmation.
type PaymentData struct {
	OrderID string       `json:"orderId"`
	Method  string       `json:"paymentMethod,omitempty"`
	Order   *model.Order `json:"order,omitempty"`
	QRCode  string       `json:"qrCode,omitempty"`
	QRValid bool         `json:"qrValid"`
}

func (*PaymentData) Step() Step { return StepPayment }

func (d *PaymentData) clonePhase() Phase { return d.clone() }

func (d *PaymentData) clone() *PaymentData {
	out := *d
	out.Order = d.Order.Clone()
	return &out
}

// UpdatingData pairs the order as last fetched with the draft being edited.
type UpdatingData struct {
	OriginalOrder *model.Order `json:"originalOrder"`
	Draft         *model.Order `json:"updateDraft"`
	HasChanges    bool         `json:"hasChanges"`
}

func (*UpdatingData) Step() Step { return StepUpdating }

func (d *UpdatingData) clonePhase() Phase { return d.clone() }

func (d *UpdatingData) clone() *UpdatingData {
	return &UpdatingData{
		OriginalOrder: d.OriginalOrder.Clone(),
		Draft:         d.Draft.Clone(),
		HasChanges:    d.HasChanges,
	}
}

// State is the whole order-flow container. A nil Phase is the idle state,
// reported as the ordering step with no cart.
type State struct {
	Phase        Phase
	LastModified time.Time
	IsHydrated   bool
}

func (s State) Step() Step {
	if s.Phase == nil {
		return StepOrdering
	}
	return s.Phase.Step()
}

func (s State) Ordering() *OrderingData {
	d, _ := s.Phase.(*OrderingData)
	return d
}

func (s State) Payment() *PaymentData {
	d, _ := s.Phase.(*PaymentData)
	return d
}

func (s State) Updating() *UpdatingData {
	d, _ := s.Phase.(*UpdatingData)
	return d
}

// Clone deep-copies the state so callers never share memory with the machine.
func (s State) Clone() State {
	out := s
	if s.Phase != nil {
		out.Phase = s.Phase.clonePhase()
	}
	return out
}

// snapshot is the persisted shape: one slot per step, only the active one set.
type snapshot struct {
	CurrentStep  Step          `json:"currentStep"`
	OrderingData *OrderingData `json:"orderingData"`
	PaymentData  *PaymentData  `json:"paymentData"`
	UpdatingData *UpdatingData `json:"updatingData"`
	LastModified time.Time     `json:"lastModified"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		CurrentStep:  s.Step(),
		OrderingData: s.Ordering(),
		PaymentData:  s.Payment(),
		UpdatingData: s.Updating(),
		LastModified: s.LastModified,
	})
}

// UnmarshalJSON keeps only the slot selected by currentStep.
func (s *State) UnmarshalJSON(b []byte) error {
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}

	*s = State{LastModified: snap.LastModified}
	switch snap.CurrentStep {
	case StepOrdering, "":
		if snap.OrderingData != nil {
			s.Phase = snap.OrderingData
		}
	case StepPayment:
		if snap.PaymentData == nil {
			return ErrCorruptState
		}
		s.Phase = snap.PaymentData
	case StepUpdating:
		if snap.UpdatingData == nil || snap.UpdatingData.OriginalOrder == nil || snap.UpdatingData.Draft == nil {
			return ErrCorruptState
		}
		s.Phase = snap.UpdatingData
	default:
		return ErrCorruptState
	}
	return nil
}
