// Package discount holds the pure line and order discount math. All amounts are
// non-negative minor currency units; percentages truncate toward zero.
package discount

import "posflow/internal/model"

// LineOriginalAmount is unit price times quantity.
func LineOriginalAmount(item model.Item) int64 {
	if item.Quantity <= 0 || item.UnitPrice <= 0 {
		return 0
	}
	return item.UnitPrice * int64(item.Quantity)
}

// LinePromotionDiscount is the promotion discount for one line. Gifts get none.
func LinePromotionDiscount(item model.Item) int64 {
	if item.Promotion == nil || item.IsGift {
		return 0
	}
	d := percentOf(LineOriginalAmount(item), item.Promotion.Value)
	return clamp(d, LineOriginalAmount(item))
}

// LineNetAmount is the post-promotion amount of a line. Gifts are free.
func LineNetAmount(item model.Item) int64 {
	if item.IsGift {
		return 0
	}
	return LineOriginalAmount(item) - LinePromotionDiscount(item)
}

// OrderSubtotalBeforeVoucher sums the post-promotion amount of every non-gift line.
func OrderSubtotalBeforeVoucher(items []model.Item) int64 {
	var total int64
	for _, it := range items {
		total += LineNetAmount(it)
	}
	return total
}

// OrderVoucherDiscount is the order-level discount the voucher grants on items,
// never more than the subtotal it is computed against.
func OrderVoucherDiscount(items []model.Item, v *model.Voucher) int64 {
	if v == nil {
		return 0
	}
	subtotal := OrderSubtotalBeforeVoucher(items)

	var d int64
	switch v.Type {
	case model.VoucherPercentOrder:
		d = percentOf(subtotal, v.Value)
	case model.VoucherFixedValue:
		d = v.Value
	case model.VoucherSamePriceProduct:
		for _, it := range items {
			d += samePriceDiscount(it, v)
		}
	}
	return clamp(d, subtotal)
}

// LineVoucherShare is one line's part of the order voucher discount, as
// assigned by LineVoucherShares. Lines are matched by id; an item that is not
// in items gets its truncated proportional share.
func LineVoucherShare(item model.Item, items []model.Item, v *model.Voucher) int64 {
	if v == nil || item.IsGift {
		return 0
	}
	if item.ID != "" {
		for i, it := range items {
			if it.ID == item.ID {
				return LineVoucherShares(items, v)[i]
			}
		}
	}
	if v.Type == model.VoucherSamePriceProduct {
		return samePriceDiscount(item, v)
	}
	subtotal := OrderSubtotalBeforeVoucher(items)
	if subtotal == 0 {
		return 0
	}
	return OrderVoucherDiscount(items, v) * LineNetAmount(item) / subtotal
}

// LineVoucherShares splits the order voucher discount across items. Percent
// and fixed vouchers are split proportionally to each line's post-promotion
// amount, and the rounding remainder goes to the last discounted line so the
// shares add up to OrderVoucherDiscount. Same-price vouchers discount matching
// lines down to the voucher value.
func LineVoucherShares(items []model.Item, v *model.Voucher) []int64 {
	out := make([]int64, len(items))
	if v == nil {
		return out
	}
	if v.Type == model.VoucherSamePriceProduct {
		for i, it := range items {
			out[i] = samePriceDiscount(it, v)
		}
		return out
	}

	subtotal := OrderSubtotalBeforeVoucher(items)
	if subtotal == 0 {
		return out
	}
	total := OrderVoucherDiscount(items, v)
	last, given := -1, int64(0)
	for i, it := range items {
		net := LineNetAmount(it)
		if it.IsGift || net == 0 {
			continue
		}
		out[i] = total * net / subtotal
		given += out[i]
		last = i
	}
	if last >= 0 {
		out[last] += total - given
	}
	return out
}

func samePriceDiscount(item model.Item, v *model.Voucher) int64 {
	if item.IsGift || !v.Covers(item.ProductID) {
		return 0
	}
	forced := v.Value * int64(item.Quantity)
	if forced < 0 {
		forced = 0
	}
	d := LineNetAmount(item) - forced
	if d < 0 {
		return 0
	}
	return d
}

func percentOf(amount, pct int64) int64 {
	if pct <= 0 || amount <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}
	return amount * pct / 100
}

func clamp(d, max int64) int64 {
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}
