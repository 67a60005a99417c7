package flow

import (
	"testing"
	"time"

	"posflow/internal/model"
	"posflow/internal/voucher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOrdering(t *testing.T) {
	t.Run("CreatesEmptyCart", func(t *testing.T) {
		m := newMachine()
		m.InitializeOrdering()

		s := m.State()
		require.NotNil(t, s.Ordering())
		assert.Empty(t, s.Ordering().Items)
		assert.Equal(t, now, s.LastModified)
	})

	t.Run("KeepsExistingCart", func(t *testing.T) {
		m := newMachine()
		m.AddItem(coffee(1))
		m.InitializeOrdering()

		assert.Len(t, m.State().Ordering().Items, 1)
	})
}

func TestAddItem(t *testing.T) {
	t.Run("LazilyCreatesCart", func(t *testing.T) {
		m := newMachine()
		id := m.AddItem(coffee(2))

		s := m.State()
		require.NotNil(t, s.Ordering())
		assert.Equal(t, "id-1", id)
		require.Len(t, s.Ordering().Items, 1)
		assert.Equal(t, id, s.Ordering().Items[0].ID)
		assert.Equal(t, 2, s.Ordering().Items[0].Quantity)
	})

	t.Run("NeverMergesLines", func(t *testing.T) {
		m := newMachine()
		a := m.AddItem(coffee(1))
		b := m.AddItem(coffee(1))

		items := m.State().Ordering().Items
		require.Len(t, items, 2)
		assert.NotEqual(t, a, b)
		assert.Equal(t, items[0].Key(), items[1].Key())
	})

	t.Run("IgnoresCallerID", func(t *testing.T) {
		m := newMachine()
		it := coffee(1)
		it.ID = "client-id"

		id := m.AddItem(it)
		assert.NotEqual(t, "client-id", id)
	})

	t.Run("RejectsQuantityBelowOne", func(t *testing.T) {
		m := newMachine()
		assert.Empty(t, m.AddItem(coffee(0)))
		assert.Nil(t, m.State().Phase)
	})

	t.Run("NoOpWhilePaying", func(t *testing.T) {
		m := newMachine()
		require.NoError(t, m.TransitionToPayment(PaymentInit{OrderID: "o-1"}))

		assert.Empty(t, m.AddItem(coffee(1)))
		assert.Equal(t, StepPayment, m.Step())
	})
}

func TestUpdateItemQuantity(t *testing.T) {
	m := newMachine()
	id := m.AddItem(coffee(1))

	m.UpdateItemQuantity(id, 4)
	assert.Equal(t, 4, m.State().Ordering().Items[0].Quantity)

	m.UpdateItemQuantity(id, 0)
	assert.Equal(t, 4, m.State().Ordering().Items[0].Quantity)

	m.UpdateItemQuantity("missing", 2)
	assert.Equal(t, 4, m.State().Ordering().Items[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	m := newMachine()
	a := m.AddItem(coffee(1))
	b := m.AddItem(tea(1))

	m.RemoveItem(a)
	m.RemoveItem("missing")

	items := m.State().Ordering().Items
	require.Len(t, items, 1)
	assert.Equal(t, b, items[0].ID)
}

func TestSetItemNote(t *testing.T) {
	m := newMachine()
	a := m.AddItem(coffee(1))
	b := m.AddItem(coffee(1))

	m.SetItemNote(b, "less sugar")

	items := m.State().Ordering().Items
	assert.Equal(t, a, items[0].ID)
	assert.Empty(t, items[0].Note)
	assert.Equal(t, "less sugar", items[1].Note)
}

func TestTableAndOrderType(t *testing.T) {
	t.Run("SetTableMakesDineIn", func(t *testing.T) {
		m := newMachine()
		m.InitializeOrdering()
		m.SetOrderType(model.OrderTypeDelivery)
		m.SetDeliveryAddress("Jl. Merdeka 1", "place-1")

		m.SetTable(model.Table{ID: "t-4", Name: "4"})

		d := m.State().Ordering()
		assert.Equal(t, model.OrderTypeDineIn, d.Type)
		assert.Equal(t, "t-4", d.Table.ID)
		assert.True(t, d.Delivery.IsZero())
	})

	t.Run("ClearTableClearsDelivery", func(t *testing.T) {
		m := newMachine()
		m.InitializeOrdering()
		m.SetTable(model.Table{ID: "t-4"})
		m.SetDeliveryPhone("0812")

		m.ClearTable()

		d := m.State().Ordering()
		assert.Nil(t, d.Table)
		assert.True(t, d.Delivery.IsZero())
	})

	t.Run("TakeOutClearsTable", func(t *testing.T) {
		m := newMachine()
		m.InitializeOrdering()
		m.SetTable(model.Table{ID: "t-4"})

		m.SetOrderType(model.OrderTypeTakeOut)

		d := m.State().Ordering()
		assert.Equal(t, model.OrderTypeTakeOut, d.Type)
		assert.Nil(t, d.Table)
	})

	t.Run("DineInClearsPickupTime", func(t *testing.T) {
		m := newMachine()
		m.InitializeOrdering()
		m.SetOrderType(model.OrderTypeTakeOut)
		m.SetPickupTime(now.Add(time.Hour))
		require.NotNil(t, m.State().Ordering().PickupTime)

		m.SetOrderType(model.OrderTypeDineIn)

		assert.Nil(t, m.State().Ordering().PickupTime)
	})

	t.Run("DeliveryKeepsAddress", func(t *testing.T) {
		m := newMachine()
		m.InitializeOrdering()
		m.SetDeliveryAddress("Jl. Merdeka 1", "place-1")
		m.SetDeliveryCoordinates(-6.2, 106.8)

		m.SetOrderType(model.OrderTypeDelivery)

		d := m.State().Ordering()
		assert.Equal(t, "place-1", d.Delivery.PlaceID)
		assert.Equal(t, -6.2, d.Delivery.Lat)
		assert.Equal(t, 106.8, d.Delivery.Lng)
	})
}

func TestVoucherOnCart(t *testing.T) {
	t.Run("AttachReplaces", func(t *testing.T) {
		m := newMachine()
		m.AddItem(coffee(1))
		first := activeVoucher()
		second := activeVoucher()
		second.ID = "v-2"

		m.AttachVoucher(first)
		m.AttachVoucher(second)

		assert.Equal(t, "v-2", m.State().Ordering().Voucher.ID)
	})

	t.Run("Detach", func(t *testing.T) {
		m := newMachine()
		m.AddItem(coffee(1))
		m.AttachVoucher(activeVoucher())

		m.DetachVoucher()

		assert.Nil(t, m.State().Ordering().Voucher)
	})

	t.Run("IneligibleOnAttach", func(t *testing.T) {
		var notices []Notice
		m := newMachine(WithNotifier(func(n Notice) { notices = append(notices, n) }))
		m.AddItem(coffee(1))
		v := activeVoucher()
		v.MinOrderValue = 200000

		m.AttachVoucher(v)

		assert.Nil(t, m.State().Ordering().Voucher)
		require.Len(t, notices, 1)
		assert.Equal(t, voucher.ReasonMinOrderNotMet, notices[0].Reason)
	})

	t.Run("DetachedWhenLastProductRemoved", func(t *testing.T) {
		var notices []Notice
		m := newMachine(WithNotifier(func(n Notice) { notices = append(notices, n) }))
		id := m.AddItem(coffee(1))
		m.AttachVoucher(activeVoucher())

		m.RemoveItem(id)

		assert.Nil(t, m.State().Ordering().Voucher)
		require.Len(t, notices, 1)
		assert.Equal(t, voucher.ReasonProductsNotApplicable, notices[0].Reason)
	})

	t.Run("DetachedWhenOwnerCleared", func(t *testing.T) {
		var notices []Notice
		m := newMachine(WithNotifier(func(n Notice) { notices = append(notices, n) }))
		m.AddItem(coffee(1))
		m.SetOwner(model.Owner{ID: "c-1", Role: model.RoleCustomer, Authenticated: true})
		v := activeVoucher()
		v.RequiresVerification = true
		m.AttachVoucher(v)
		require.NotNil(t, m.State().Ordering().Voucher)

		m.ClearOwner()

		assert.Nil(t, m.State().Ordering().Voucher)
		require.Len(t, notices, 1)
		assert.Equal(t, voucher.ReasonVerificationRequired, notices[0].Reason)
	})

	t.Run("DetachedOnUnsupportedPaymentMethod", func(t *testing.T) {
		var notices []Notice
		m := newMachine(WithNotifier(func(n Notice) { notices = append(notices, n) }))
		m.AddItem(coffee(1))
		v := activeVoucher()
		v.PaymentMethods = []string{"QRIS"}
		m.AttachVoucher(v)

		m.SetPaymentMethod("CASH")

		assert.Nil(t, m.State().Ordering().Voucher)
		require.Len(t, notices, 1)
		assert.Equal(t, voucher.ReasonPaymentMethodUnsupported, notices[0].Reason)
	})
}

func TestOrderingFields(t *testing.T) {
	m := newMachine()
	m.InitializeOrdering()

	m.SetNote("birthday")
	m.SetOwner(model.Owner{ID: "c-1", Name: "Ana"})
	m.SetPaymentMethod("QRIS")

	d := m.State().Ordering()
	assert.Equal(t, "birthday", d.Note)
	assert.Equal(t, "Ana", d.Owner.Name)
	assert.Equal(t, "QRIS", d.PaymentMethod)
}

func TestTransitionBackToOrdering(t *testing.T) {
	m := newMachine()
	m.AddItem(coffee(1))
	require.NoError(t, m.TransitionToPayment(PaymentInit{OrderID: "o-1"}))

	m.TransitionBackToOrdering()

	s := m.State()
	assert.Nil(t, s.Payment())
	require.NotNil(t, s.Ordering())
	assert.Empty(t, s.Ordering().Items)
}

func TestClearOrdering(t *testing.T) {
	t.Run("DropsCart", func(t *testing.T) {
		m := newMachine()
		m.AddItem(coffee(1))
		m.ClearOrdering()
		assert.Nil(t, m.State().Phase)
	})

	t.Run("LeavesOtherPhases", func(t *testing.T) {
		m := newMachine()
		require.NoError(t, m.TransitionToPayment(PaymentInit{OrderID: "o-1"}))
		m.ClearOrdering()
		assert.NotNil(t, m.State().Payment())
	})
}
