package model

import (
	"slices"
	"time"
)

type VoucherType string

const (
	VoucherPercentOrder     VoucherType = "PERCENT_ORDER"
	VoucherFixedValue       VoucherType = "FIXED_VALUE"
	VoucherSamePriceProduct VoucherType = "SAME_PRICE_PRODUCT"
)

type ApplicabilityRule string

const (
	RuleAllRequired        ApplicabilityRule = "ALL_REQUIRED"
	RuleAtLeastOneRequired ApplicabilityRule = "AT_LEAST_ONE_REQUIRED"
)

// Voucher is an order-level discount grant. At most one is attached to an order.
type Voucher struct {
	ID                   string            `json:"id"`
	Slug                 string            `json:"slug"`
	Name                 string            `json:"name,omitempty"`
	Type                 VoucherType       `json:"type"`
	Value                int64             `json:"value"`
	MinOrderValue        int64             `json:"minOrderValue"`
	Rule                 ApplicabilityRule `json:"rule"`
	ProductIDs           []string          `json:"productIds"`
	RemainingUsage       int               `json:"remainingUsage"`
	MaxUsage             int               `json:"maxUsage"`
	IsActive             bool              `json:"isActive"`
	StartDate            time.Time         `json:"startDate"`
	EndDate              time.Time         `json:"endDate"`
	RequiresVerification bool              `json:"requiresVerification"`
	MaxItems             int               `json:"maxItems"`
	PaymentMethods       []string          `json:"paymentMethods,omitempty"`
}

// Covers reports whether the voucher lists the product.
func (v *Voucher) Covers(productID string) bool {
	return slices.Contains(v.ProductIDs, productID)
}

func (v *Voucher) Clone() *Voucher {
	if v == nil {
		return nil
	}
	out := *v
	out.ProductIDs = slices.Clone(v.ProductIDs)
	out.PaymentMethods = slices.Clone(v.PaymentMethods)
	return &out
}

// SameVoucher compares vouchers by identity, treating two nils as equal.
func SameVoucher(a, b *Voucher) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
