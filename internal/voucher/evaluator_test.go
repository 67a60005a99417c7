package voucher

import (
	"testing"
	"time"

	"posflow/internal/model"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func validVoucher() *model.Voucher {
	return &model.Voucher{
		ID:             "v-1",
		Slug:           "HAPPY20",
		Type:           model.VoucherPercentOrder,
		Value:          20,
		Rule:           model.RuleAtLeastOneRequired,
		ProductIDs:     []string{"p1", "p2"},
		RemainingUsage: 10,
		MaxUsage:       100,
		IsActive:       true,
		StartDate:      now.Add(-24 * time.Hour),
		EndDate:        now.Add(24 * time.Hour),
	}
}

func cart() []model.Item {
	return []model.Item{{ID: "i1", ProductID: "p1", UnitPrice: 100000, Quantity: 1}}
}

func verifiedOwner() model.Owner {
	return model.Owner{ID: "c-1", Role: model.RoleCustomer, Authenticated: true}
}

func TestEvaluate_Eligible(t *testing.T) {
	res := Evaluate(validVoucher(), cart(), Context{Now: now})
	assert.True(t, res.Eligible)
	assert.Equal(t, ReasonNone, res.Reason)
}

func TestEvaluate_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *model.Voucher)
		items  []model.Item
		ctx    Context
		want   Reason
	}{
		{
			name:   "Inactive",
			mutate: func(v *model.Voucher) { v.IsActive = false },
			want:   ReasonInactive,
		},
		{
			name:   "NotStarted",
			mutate: func(v *model.Voucher) { v.StartDate = now.Add(time.Hour) },
			want:   ReasonNotStarted,
		},
		{
			name:   "OutOfStock",
			mutate: func(v *model.Voucher) { v.RemainingUsage = 0 },
			want:   ReasonOutOfStock,
		},
		{
			name:   "MinOrderNotMet",
			mutate: func(v *model.Voucher) { v.MinOrderValue = 200000 },
			want:   ReasonMinOrderNotMet,
		},
		{
			name:   "EmptyProductList",
			mutate: func(v *model.Voucher) { v.ProductIDs = nil },
			want:   ReasonProductsNotApplicable,
		},
		{
			name:   "AtLeastOneNoMatch",
			mutate: func(v *model.Voucher) { v.ProductIDs = []string{"p9"} },
			want:   ReasonProductsNotApplicable,
		},
		{
			name: "AllRequiredMissingOne",
			mutate: func(v *model.Voucher) {
				v.Rule = model.RuleAllRequired
				v.ProductIDs = []string{"p1"}
			},
			items: []model.Item{
				{ID: "i1", ProductID: "p1", UnitPrice: 100000, Quantity: 1},
				{ID: "i2", ProductID: "p3", UnitPrice: 100000, Quantity: 1},
			},
			want: ReasonProductsNotApplicable,
		},
		{
			name: "EndedBeforeTodayCutoff",
			mutate: func(v *model.Voucher) {
				v.EndDate = time.Date(2026, 3, 14, 6, 50, 0, 0, time.UTC)
			},
			ctx:  Context{Now: time.Date(2026, 3, 14, 7, 10, 0, 0, time.UTC)},
			want: ReasonExpired,
		},
		{
			name:   "VerificationAnonymous",
			mutate: func(v *model.Voucher) { v.RequiresVerification = true },
			want:   ReasonVerificationRequired,
		},
		{
			name:   "VerificationStaff",
			mutate: func(v *model.Voucher) { v.RequiresVerification = true },
			ctx: Context{Now: now, Owner: model.Owner{
				ID: "s-1", Role: model.RoleStaff, Authenticated: true,
			}},
			want: ReasonVerificationRequired,
		},
		{
			name:   "VerificationDefaultCustomer",
			mutate: func(v *model.Voucher) { v.RequiresVerification = true },
			ctx: Context{Now: now, Owner: model.Owner{
				ID: "walk-in", Role: model.RoleCustomer, Authenticated: true, IsDefault: true,
			}},
			want: ReasonVerificationRequired,
		},
		{
			name:   "TooManyItems",
			mutate: func(v *model.Voucher) { v.MaxItems = 2 },
			items:  []model.Item{{ID: "i1", ProductID: "p1", UnitPrice: 100000, Quantity: 3}},
			want:   ReasonTooManyItems,
		},
		{
			name:   "PaymentMethod",
			mutate: func(v *model.Voucher) { v.PaymentMethods = []string{"QRIS"} },
			ctx:    Context{Now: now, PaymentMethod: "CASH"},
			want:   ReasonPaymentMethodUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validVoucher()
			tt.mutate(v)
			items := tt.items
			if items == nil {
				items = cart()
			}
			ctx := tt.ctx
			if ctx.Now.IsZero() {
				ctx.Now = now
			}

			res := Evaluate(v, items, ctx)
			assert.False(t, res.Eligible)
			assert.Equal(t, tt.want, res.Reason)
			assert.NotEmpty(t, res.Reason.Message())
		})
	}
}

func TestEvaluate_ExpiryGrace(t *testing.T) {
	t.Run("29MinutesAfterEnd", func(t *testing.T) {
		v := validVoucher()
		v.EndDate = now.Add(-29 * time.Minute)
		assert.True(t, Evaluate(v, cart(), Context{Now: now}).Eligible)
	})

	t.Run("31MinutesAfterEnd", func(t *testing.T) {
		v := validVoucher()
		v.EndDate = now.Add(-31 * time.Minute)
		res := Evaluate(v, cart(), Context{Now: now})
		assert.False(t, res.Eligible)
		assert.Equal(t, ReasonExpired, res.Reason)
	})
}

func TestEvaluate_CutoffUsesClockZone(t *testing.T) {
	ict := time.FixedZone("ICT", 7*60*60)
	at := time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC) // 07:30 in ICT

	v := validVoucher()
	v.EndDate = time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC) // noon in ICT

	local := Evaluate(v, cart(), Context{Now: at.In(ict)})
	assert.True(t, local.Eligible)

	utc := Evaluate(v, cart(), Context{Now: at})
	assert.Equal(t, ReasonExpired, utc.Reason)
}

func TestEvaluate_PrecedenceFirstFailureWins(t *testing.T) {
	v := validVoucher()
	v.IsActive = false
	v.RemainingUsage = 0
	v.MinOrderValue = 1_000_000

	assert.Equal(t, ReasonInactive, Evaluate(v, cart(), Context{Now: now}).Reason)
}

func TestEvaluate_SamePriceSkipsMinOrder(t *testing.T) {
	for _, min := range []int64{0, 1, 100000, 10_000_000} {
		v := validVoucher()
		v.Type = model.VoucherSamePriceProduct
		v.Value = 5000
		v.MinOrderValue = min
		assert.True(t, Evaluate(v, cart(), Context{Now: now}).Eligible, "min order %d", min)
	}
}

func TestEvaluate_AppliedExemptions(t *testing.T) {
	t.Run("OutOfStockStillUsable", func(t *testing.T) {
		v := validVoucher()
		v.RemainingUsage = 0
		assert.True(t, Evaluate(v, cart(), Context{Now: now, Applied: true}).Eligible)
	})

	t.Run("ExpiredStillUsable", func(t *testing.T) {
		v := validVoucher()
		v.EndDate = now.Add(-48 * time.Hour)
		assert.True(t, Evaluate(v, cart(), Context{Now: now, Applied: true}).Eligible)
	})

	t.Run("ItemCeilingStillEnforced", func(t *testing.T) {
		v := validVoucher()
		v.MaxItems = 1
		items := []model.Item{{ID: "i1", ProductID: "p1", UnitPrice: 100000, Quantity: 2}}
		res := Evaluate(v, items, Context{Now: now, Applied: true})
		assert.Equal(t, ReasonTooManyItems, res.Reason)
	})
}

func TestEvaluate_VerifiedOwner(t *testing.T) {
	v := validVoucher()
	v.RequiresVerification = true
	assert.True(t, Evaluate(v, cart(), Context{Now: now, Owner: verifiedOwner()}).Eligible)
}

func TestEvaluate_GiftsIgnored(t *testing.T) {
	v := validVoucher()
	v.Rule = model.RuleAllRequired
	v.ProductIDs = []string{"p1"}
	v.MaxItems = 1

	items := append(cart(), model.Item{ID: "g", ProductID: "gift", UnitPrice: 5000, Quantity: 4, IsGift: true})
	assert.True(t, Evaluate(v, items, Context{Now: now}).Eligible)
	assert.Equal(t, 1, ItemCount(items))
	assert.Equal(t, []string{"p1"}, ProductIDs(items))
}

func TestEvaluate_NilVoucher(t *testing.T) {
	assert.False(t, Evaluate(nil, cart(), Context{Now: now}).Eligible)
}
