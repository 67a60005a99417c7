package flow

import (
	"posflow/internal/model"
	"posflow/internal/voucher"
)

// Every cart or draft mutation ends with the same invariant: an attached voucher
// must still be eligible, otherwise it is detached and reported.

func (m *Machine) guardOrdering(d *OrderingData) *Notice {
	if d.Voucher == nil {
		return nil
	}
	res := voucher.Evaluate(d.Voucher, d.Items, voucher.Context{
		Now:           m.now(),
		Owner:         d.Owner,
		PaymentMethod: d.PaymentMethod,
	})
	if res.Eligible {
		return nil
	}
	n := detached(StepOrdering, d.Voucher, res.Reason)
	d.Voucher = nil
	return n
}

func (m *Machine) guardDraft(d *UpdatingData) *Notice {
	draft := d.Draft
	if draft.Voucher != nil {
		res := voucher.Evaluate(draft.Voucher, draft.Items, voucher.Context{
			Now:           m.now(),
			Owner:         draft.Owner,
			PaymentMethod: draft.PaymentMethod,
			Applied:       d.OriginalOrder.Voucher != nil && model.SameVoucher(d.OriginalOrder.Voucher, draft.Voucher),
		})
		if !res.Eligible {
			n := detached(StepUpdating, draft.Voucher, res.Reason)
			draft.Voucher = nil
			d.HasChanges = m.draftChanged(d)
			return n
		}
	}
	d.HasChanges = m.draftChanged(d)
	return nil
}

func detached(step Step, v *model.Voucher, reason voucher.Reason) *Notice {
	return &Notice{
		Step:    step,
		Voucher: v,
		Reason:  reason,
		Message: reason.Message(),
	}
}
