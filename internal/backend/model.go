package backend

import (
	"time"

	"posflow/internal/draft"
	"posflow/internal/model"
	"posflow/internal/pricing"
)

// Line is one flattened order line as the backend expects it.
type Line struct {
	ID          string `json:"id,omitempty"`
	Quantity    int    `json:"quantity"`
	VariantID   string `json:"variant"`
	PromotionID string `json:"promotion,omitempty"`
	Note        string `json:"note,omitempty"`
}

type CreateOrderRequest struct {
	Type          model.OrderType `json:"type"`
	OwnerID       string          `json:"ownerId,omitempty"`
	TableID       string          `json:"tableId,omitempty"`
	Delivery      *model.Delivery `json:"delivery,omitempty"`
	PickupTime    *time.Time      `json:"pickupTime,omitempty"`
	Items         []Line          `json:"items"`
	VoucherSlug   string          `json:"voucherCode,omitempty"`
	Note          string          `json:"note,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Points        int64           `json:"pointsToUse,omitempty"`
	Totals        pricing.Totals  `json:"totals"`
}

type CreateOrderResponse struct {
	ID     string            `json:"id"`
	Code   string            `json:"code"`
	Status model.OrderStatus `json:"status"`
	QRCode string            `json:"qrCode,omitempty"`
}

// UpdateOrderRequest carries an edited draft and the change summary staff
// confirmed.
type UpdateOrderRequest struct {
	CreateOrderRequest
	Changes draft.ChangeSet `json:"changes"`
}

type errorResponse struct {
	Message string `json:"message"`
}
