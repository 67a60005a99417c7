// Package voucher decides whether an order-level voucher applies to a set of
// items and reports the first failing rule as a reason code.
package voucher

import (
	"slices"
	"time"

	"posflow/internal/discount"
	"posflow/internal/model"
)

const (
	// ExpiryGrace keeps a voucher usable for a while after its end timestamp.
	ExpiryGrace = 30 * time.Minute

	// CutoffHour is the business-day start; vouchers ending before it today are stale.
	CutoffHour = 7
)

// Context carries everything besides the voucher and items that eligibility depends on.
type Context struct {
	Now           time.Time
	Owner         model.Owner
	PaymentMethod string

	// Applied marks the voucher already sitting on the order being edited. It
	// exempts the checks an edit cannot influence: status, dates and usage.
	Applied bool
}

type Result struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reasonCode,omitempty"`
}

func ok() Result { return Result{Eligible: true} }

func fail(r Reason) Result { return Result{Reason: r} }

// Evaluate runs the eligibility checks in precedence order.
func Evaluate(v *model.Voucher, items []model.Item, c Context) Result {
	if v == nil {
		return fail(ReasonInactive)
	}

	if !c.Applied {
		if !v.IsActive {
			return fail(ReasonInactive)
		}
		if !v.EndDate.IsZero() && c.Now.After(v.EndDate.Add(ExpiryGrace)) {
			return fail(ReasonExpired)
		}
		if !v.StartDate.IsZero() && c.Now.Before(v.StartDate) {
			return fail(ReasonNotStarted)
		}
		if v.RemainingUsage <= 0 {
			return fail(ReasonOutOfStock)
		}
	}

	if v.Type != model.VoucherSamePriceProduct &&
		discount.OrderSubtotalBeforeVoucher(items) < v.MinOrderValue {
		return fail(ReasonMinOrderNotMet)
	}

	if !applicable(v, items) {
		return fail(ReasonProductsNotApplicable)
	}

	if !c.Applied && !v.EndDate.IsZero() && v.EndDate.Before(cutoff(c.Now)) {
		return fail(ReasonExpired)
	}

	if v.RequiresVerification && !c.Owner.Verified() {
		return fail(ReasonVerificationRequired)
	}

	if v.MaxItems > 0 && ItemCount(items) > v.MaxItems {
		return fail(ReasonTooManyItems)
	}

	if len(v.PaymentMethods) > 0 && c.PaymentMethod != "" &&
		!slices.Contains(v.PaymentMethods, c.PaymentMethod) {
		return fail(ReasonPaymentMethodUnsupported)
	}

	return ok()
}

// ItemCount is the total quantity of non-gift lines.
func ItemCount(items []model.Item) int {
	n := 0
	for _, it := range items {
		if !it.IsGift {
			n += it.Quantity
		}
	}
	return n
}

// ProductIDs returns the distinct non-gift product ids in first-seen order.
func ProductIDs(items []model.Item) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.IsGift {
			continue
		}
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

func applicable(v *model.Voucher, items []model.Item) bool {
	if len(v.ProductIDs) == 0 {
		return false
	}
	products := ProductIDs(items)
	if len(products) == 0 {
		return false
	}

	switch v.Rule {
	case model.RuleAllRequired:
		for _, p := range products {
			if !v.Covers(p) {
				return false
			}
		}
		return true
	case model.RuleAtLeastOneRequired:
		return slices.ContainsFunc(products, v.Covers)
	default:
		return false
	}
}

func cutoff(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, CutoffHour, 0, 0, 0, now.Location())
}
