package model

import "time"

type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeOut  OrderType = "TAKE_OUT"
	OrderTypeDelivery OrderType = "DELIVERY"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
)

// Owner is the customer an order belongs to. An empty ID means anonymous.
type Owner struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Role          Role   `json:"role,omitempty"`
	Authenticated bool   `json:"authenticated,omitempty"`
	IsDefault     bool   `json:"isDefault,omitempty"`
}

// Verified reports whether the owner may use identity-restricted vouchers.
func (o Owner) Verified() bool {
	return o.Authenticated && o.ID != "" && !o.IsDefault && o.Role != RoleStaff
}

type Table struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Area string `json:"area,omitempty"`
}

type Delivery struct {
	Address string  `json:"address,omitempty"`
	PlaceID string  `json:"placeId,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

func (d Delivery) IsZero() bool {
	return d == Delivery{}
}

// Order is the server-side order record as fetched from the backend.
type Order struct {
	ID            string      `json:"id"`
	Code          string      `json:"code,omitempty"`
	Status        OrderStatus `json:"status"`
	Type          OrderType   `json:"type"`
	Owner         Owner       `json:"owner"`
	Table         *Table      `json:"table,omitempty"`
	Delivery      Delivery    `json:"delivery"`
	PickupTime    *time.Time  `json:"pickupTime,omitempty"`
	Items         []Item      `json:"items"`
	Voucher       *Voucher    `json:"voucher,omitempty"`
	Note          string      `json:"note,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := *o
	if o.Table != nil {
		t := *o.Table
		out.Table = &t
	}
	if o.PickupTime != nil {
		p := *o.PickupTime
		out.PickupTime = &p
	}
	out.Items = CloneItems(o.Items)
	out.Voucher = o.Voucher.Clone()
	return &out
}

// CloneTable copies an optional table.
func CloneTable(t *Table) *Table {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// CloneTime copies an optional timestamp.
func CloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
