// Package legacy keeps the old mutator names alive for call sites that have
// not moved to the flow command sets. Every method delegates to exactly one
// canonical command.
package legacy

import (
	"posflow/internal/flow"
	"posflow/internal/model"
)

type Core interface {
	flow.OrderingCommands
	flow.PaymentCommands
	flow.UpdatingCommands
	ClearAll()
}

type Store struct {
	core Core
}

func New(core Core) *Store {
	return &Store{core: core}
}

func (s *Store) AddCartItem(item model.Item) string { return s.core.AddItem(item) }

func (s *Store) RemoveCartItem(id string) { s.core.RemoveItem(id) }

func (s *Store) UpdateCartItemQuantity(id string, quantity int) {
	s.core.UpdateItemQuantity(id, quantity)
}

func (s *Store) AddTable(t model.Table) { s.core.SetTable(t) }

func (s *Store) RemoveTable() { s.core.ClearTable() }

func (s *Store) AddVoucher(v model.Voucher) { s.core.AttachVoucher(v) }

func (s *Store) RemoveVoucher() { s.core.DetachVoucher() }

func (s *Store) AddNote(note string) { s.core.SetNote(note) }

func (s *Store) SetOrderType(t model.OrderType) { s.core.SetOrderType(t) }

func (s *Store) SetUpdatingData(o *model.Order) error { return s.core.InitializeUpdating(o) }

func (s *Store) ClearUpdatingData() { s.core.DiscardUpdating() }

func (s *Store) ClearOrderingData() { s.core.ClearOrdering() }

func (s *Store) SetPaymentData(p flow.PaymentInit) error { return s.core.TransitionToPayment(p) }

func (s *Store) ClearPaymentData() { s.core.CompletePayment() }

// ResetStore drops every phase.
func (s *Store) ResetStore() { s.core.ClearAll() }
