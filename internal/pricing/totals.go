// Package pricing folds order items and an optional voucher into a totals
// record. ComputeTotals is the only place totals are derived; display and
// submission payloads both call it.
package pricing

import (
	"posflow/internal/discount"
	"posflow/internal/model"
	"posflow/internal/voucher"
)

type Totals struct {
	SubtotalBeforeDiscount int64 `json:"subtotalBeforeDiscount"`
	PromotionDiscount      int64 `json:"promotionDiscount"`
	VoucherDiscount        int64 `json:"voucherDiscount"`
	DeliveryFee            int64 `json:"deliveryFee"`
	PointsDeduction        int64 `json:"pointsDeduction"`
	FinalTotal             int64 `json:"finalTotal"`
}

// ComputeTotals is pure. Negative fee or points are treated as zero and the
// final total never drops below zero.
func ComputeTotals(items []model.Item, v *model.Voucher, deliveryFee, pointsToUse int64) Totals {
	var t Totals
	for _, it := range items {
		if it.IsGift {
			continue
		}
		t.SubtotalBeforeDiscount += discount.LineOriginalAmount(it)
		t.PromotionDiscount += discount.LinePromotionDiscount(it)
	}
	t.VoucherDiscount = discount.OrderVoucherDiscount(items, v)
	t.DeliveryFee = max(deliveryFee, 0)

	due := t.SubtotalBeforeDiscount - t.PromotionDiscount - t.VoucherDiscount + t.DeliveryFee
	if due < 0 {
		due = 0
	}
	t.PointsDeduction = min(max(pointsToUse, 0), due)
	t.FinalTotal = due - t.PointsDeduction
	return t
}

// Quote is a totals record together with the voucher verdict it was computed under.
type Quote struct {
	Totals  Totals          `json:"totals"`
	Voucher *model.Voucher  `json:"voucher,omitempty"`
	Result  *voucher.Result `json:"voucherResult,omitempty"`
}

// Calculator evaluates the voucher before pricing so an ineligible voucher
// never reduces the total.
type Calculator struct {
	Evaluate func(v *model.Voucher, items []model.Item, c voucher.Context) voucher.Result
}

func NewCalculator() *Calculator {
	return &Calculator{Evaluate: voucher.Evaluate}
}

func (c *Calculator) Quote(items []model.Item, v *model.Voucher, ctx voucher.Context, deliveryFee, pointsToUse int64) Quote {
	q := Quote{Voucher: v}
	applied := v
	if v != nil {
		res := c.Evaluate(v, items, ctx)
		q.Result = &res
		if !res.Eligible {
			applied = nil
		}
	}
	q.Totals = ComputeTotals(items, applied, deliveryFee, pointsToUse)
	return q
}
