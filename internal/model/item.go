package model

// Promotion is a per-item percentage discount.
type Promotion struct {
	ID    string `json:"id"`
	Value int64  `json:"value"`
}

// Item is one line in a cart, order or draft. Amounts are minor currency units.
type Item struct {
	ID        string     `json:"id"`
	ProductID string     `json:"productId"`
	VariantID string     `json:"variantId"`
	Size      string     `json:"size,omitempty"`
	Name      string     `json:"name,omitempty"`
	UnitPrice int64      `json:"originalPrice"`
	Quantity  int        `json:"quantity"`
	Promotion *Promotion `json:"promotion,omitempty"`
	Note      string     `json:"note,omitempty"`
	IsGift    bool       `json:"isGift,omitempty"`
}

// Key groups lines of the same product, variant and size.
func (i Item) Key() string {
	return i.ProductID + "|" + i.VariantID + "|" + i.Size
}

func (i Item) Clone() Item {
	out := i
	if i.Promotion != nil {
		p := *i.Promotion
		out.Promotion = &p
	}
	return out
}

func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
