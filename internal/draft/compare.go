// Package draft builds the change-set between an order as the server knows it
// and the locally edited draft, for staff confirmation screens.
package draft

import (
	"posflow/internal/model"
)

type ChangeKind string

const (
	KindAdded           ChangeKind = "added"
	KindRemoved         ChangeKind = "removed"
	KindQuantityChanged ChangeKind = "quantity_changed"
	KindNoteChanged     ChangeKind = "note_changed"
	KindUnchanged       ChangeKind = "unchanged"
)

type ItemChange struct {
	Kind     ChangeKind  `json:"kind"`
	Key      string      `json:"key"`
	Original *model.Item `json:"original,omitempty"`
	Draft    *model.Item `json:"draft,omitempty"`
}

// Header flags one field per order-level attribute that differs.
type Header struct {
	Voucher       bool `json:"voucher"`
	Table         bool `json:"table"`
	OrderType     bool `json:"orderType"`
	Owner         bool `json:"owner"`
	Note          bool `json:"note"`
	PickupTime    bool `json:"pickupTime"`
	DeliveryPlace bool `json:"deliveryPlace"`
	DeliveryPhone bool `json:"deliveryPhone"`
}

func (h Header) Any() bool {
	return h.Voucher || h.Table || h.OrderType || h.Owner || h.Note ||
		h.PickupTime || h.DeliveryPlace || h.DeliveryPhone
}

type ChangeSet struct {
	Items      []ItemChange `json:"items"`
	Header     Header       `json:"header"`
	HasChanges bool         `json:"hasChanges"`
}

// Count returns how many item changes are of the given kind.
func (cs ChangeSet) Count(kind ChangeKind) int {
	n := 0
	for _, c := range cs.Items {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Changed returns the item changes that are not unchanged.
func (cs ChangeSet) Changed() []ItemChange {
	out := make([]ItemChange, 0, len(cs.Items))
	for _, c := range cs.Items {
		if c.Kind != KindUnchanged {
			out = append(out, c)
		}
	}
	return out
}

// Compare groups both item lists by product, variant and size and aligns lines
// of the same key by position. Keys are visited in first-appearance order,
// original lines first, so the output is deterministic.
func Compare(original, edited *model.Order) ChangeSet {
	orig, keys := group(itemsOf(original), nil)
	next, keys := group(itemsOf(edited), keys)

	var cs ChangeSet
	for _, key := range keys {
		o, d := orig[key], next[key]
		n := min(len(o), len(d))
		for i := 0; i < n; i++ {
			cs.Items = append(cs.Items, classify(key, o[i], d[i]))
		}
		for i := n; i < len(d); i++ {
			cs.Items = append(cs.Items, ItemChange{Kind: KindAdded, Key: key, Draft: ref(d[i])})
		}
		for i := n; i < len(o); i++ {
			cs.Items = append(cs.Items, ItemChange{Kind: KindRemoved, Key: key, Original: ref(o[i])})
		}
	}

	cs.Header = compareHeader(original, edited)
	cs.HasChanges = cs.Header.Any() || len(cs.Changed()) > 0
	return cs
}

// CompareByID aligns lines on their stable ids instead of position. Lines
// without a counterpart id are added or removed.
func CompareByID(original, edited *model.Order) ChangeSet {
	origItems, draftItems := itemsOf(original), itemsOf(edited)
	byID := make(map[string]model.Item, len(draftItems))
	for _, it := range draftItems {
		byID[it.ID] = it
	}

	var cs ChangeSet
	matched := make(map[string]bool, len(origItems))
	for _, o := range origItems {
		d, found := byID[o.ID]
		if !found || o.ID == "" {
			cs.Items = append(cs.Items, ItemChange{Kind: KindRemoved, Key: o.Key(), Original: ref(o)})
			continue
		}
		matched[o.ID] = true
		cs.Items = append(cs.Items, classify(o.Key(), o, d))
	}
	for _, d := range draftItems {
		if d.ID == "" || !matched[d.ID] {
			cs.Items = append(cs.Items, ItemChange{Kind: KindAdded, Key: d.Key(), Draft: ref(d)})
		}
	}

	cs.Header = compareHeader(original, edited)
	cs.HasChanges = cs.Header.Any() || len(cs.Changed()) > 0
	return cs
}

func classify(key string, o, d model.Item) ItemChange {
	c := ItemChange{Key: key, Original: ref(o), Draft: ref(d)}
	switch {
	case o.Quantity != d.Quantity:
		c.Kind = KindQuantityChanged
	case o.Note != d.Note:
		c.Kind = KindNoteChanged
	default:
		c.Kind = KindUnchanged
	}
	return c
}

func compareHeader(a, b *model.Order) Header {
	if a == nil {
		a = &model.Order{}
	}
	if b == nil {
		b = &model.Order{}
	}
	return Header{
		Voucher:       !model.SameVoucher(a.Voucher, b.Voucher),
		Table:         tableID(a.Table) != tableID(b.Table),
		OrderType:     a.Type != b.Type,
		Owner:         a.Owner.ID != b.Owner.ID,
		Note:          a.Note != b.Note,
		PickupTime:    !sameTime(a, b),
		DeliveryPlace: a.Delivery.PlaceID != b.Delivery.PlaceID,
		DeliveryPhone: a.Delivery.Phone != b.Delivery.Phone,
	}
}

func group(items []model.Item, keys []string) (map[string][]model.Item, []string) {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	out := make(map[string][]model.Item)
	for _, it := range items {
		k := it.Key()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
		out[k] = append(out[k], it)
	}
	return out, keys
}

func itemsOf(o *model.Order) []model.Item {
	if o == nil {
		return nil
	}
	return o.Items
}

func tableID(t *model.Table) string {
	if t == nil {
		return ""
	}
	return t.ID
}

func sameTime(a, b *model.Order) bool {
	if a.PickupTime == nil || b.PickupTime == nil {
		return a.PickupTime == nil && b.PickupTime == nil
	}
	return a.PickupTime.Equal(*b.PickupTime)
}

func ref(it model.Item) *model.Item {
	c := it.Clone()
	return &c
}
