// Package checkout submits carts and edited drafts to the backend. Totals in
// every request come from pricing, the same code the terminal displays.
package checkout

import (
	"context"
	"fmt"
	"time"

	"posflow/internal/backend"
	"posflow/internal/draft"
	"posflow/internal/flow"
	"posflow/internal/logger"
	"posflow/internal/model"
	"posflow/internal/pricing"
	"posflow/internal/voucher"

	"go.uber.org/zap"
)

type Backend interface {
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*backend.CreateOrderResponse, error)
	UpdateOrder(ctx context.Context, id string, req backend.UpdateOrderRequest) (*model.Order, error)
}

type Flow interface {
	State() flow.State
	TransitionToPayment(p flow.PaymentInit) error
	SetQRCode(payload string)
	CompleteUpdating()
}

// Comparator builds the change-set between an original order and its draft.
type Comparator func(original, edited *model.Order) draft.ChangeSet

type Service struct {
	backend     Backend
	flow        Flow
	calc        *pricing.Calculator
	compare     Comparator
	now         func() time.Time
	deliveryFee int64
}

type Option func(*Service)

func WithComparator(c Comparator) Option {
	return func(s *Service) { s.compare = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(b Backend, f Flow, deliveryFee int64, opts ...Option) *Service {
	s := &Service{
		backend:     b,
		flow:        f,
		calc:        pricing.NewCalculator(),
		compare:     draft.Compare,
		now:         func() time.Time { return time.Now().UTC() },
		deliveryFee: deliveryFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdatePreview is what staff confirm before an edit is sent. HasChanges
// compares the draft with the original by value; Changes is the line-level
// summary, which does not see every edit (a line replaced by one with the same
// key, or a moved delivery address).
type UpdatePreview struct {
	HasChanges bool            `json:"hasChanges"`
	Changes    draft.ChangeSet `json:"changes"`
	Quote      pricing.Quote   `json:"quote"`
}

func (s *Service) fee(t model.OrderType) int64 {
	if t == model.OrderTypeDelivery {
		return s.deliveryFee
	}
	return 0
}

// QuoteCart prices the current cart.
func (s *Service) QuoteCart(points int64) (pricing.Quote, error) {
	d := s.flow.State().Ordering()
	if d == nil {
		return pricing.Quote{}, ErrNoCart
	}
	return s.quoteCart(d, points), nil
}

func (s *Service) quoteCart(d *flow.OrderingData, points int64) pricing.Quote {
	return s.calc.Quote(d.Items, d.Voucher, voucher.Context{
		Now:           s.now(),
		Owner:         d.Owner,
		PaymentMethod: d.PaymentMethod,
	}, s.fee(d.Type), points)
}

// SubmitOrder sends the cart to the backend and, once accepted, moves the
// flow into payment. A rejected cart is left untouched so it can be retried.
func (s *Service) SubmitOrder(ctx context.Context, points int64) (*backend.CreateOrderResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitOrder"),
	)

	d := s.flow.State().Ordering()
	if d == nil {
		return nil, ErrNoCart
	}
	if len(d.Items) == 0 {
		return nil, ErrEmptyCart
	}

	q := s.quoteCart(d, points)
	req := backend.CreateOrderRequest{
		Type:          d.Type,
		OwnerID:       d.Owner.ID,
		TableID:       tableID(d.Table),
		Delivery:      delivery(d.Type, d.Delivery),
		PickupTime:    d.PickupTime,
		Items:         lines(d.Items, false),
		VoucherSlug:   slug(q),
		Note:          d.Note,
		PaymentMethod: d.PaymentMethod,
		Points:        q.Totals.PointsDeduction,
		Totals:        q.Totals,
	}

	res, err := s.backend.CreateOrder(ctx, req)
	if err != nil {
		log.Warn("order submission rejected", zap.Error(err))
		return nil, fmt.Errorf("submit order: %w", err)
	}
	if res.ID == "" {
		return nil, ErrEmptyResult
	}

	err = s.flow.TransitionToPayment(flow.PaymentInit{
		OrderID: res.ID,
		Method:  d.PaymentMethod,
		Order:   placed(res, d),
	})
	if err != nil {
		return nil, err
	}
	if res.QRCode != "" {
		s.flow.SetQRCode(res.QRCode)
	}

	log.Info("order submitted",
		zap.String("order_id", res.ID),
		zap.Int64("final_total", q.Totals.FinalTotal),
	)
	return res, nil
}

// PreviewUpdate returns the change-set and totals of the draft being edited.
func (s *Service) PreviewUpdate() (*UpdatePreview, error) {
	d := s.flow.State().Updating()
	if d == nil {
		return nil, ErrNotEditing
	}
	return s.preview(d), nil
}

func (s *Service) preview(d *flow.UpdatingData) *UpdatePreview {
	o := d.Draft
	q := s.calc.Quote(o.Items, o.Voucher, voucher.Context{
		Now:           s.now(),
		Owner:         o.Owner,
		PaymentMethod: o.PaymentMethod,
		Applied:       d.OriginalOrder.Voucher != nil && model.SameVoucher(d.OriginalOrder.Voucher, o.Voucher),
	}, s.fee(o.Type), 0)

	return &UpdatePreview{
		HasChanges: d.HasChanges,
		Changes:    s.compare(d.OriginalOrder, o),
		Quote:      q,
	}
}

// SubmitUpdate sends the edited draft. On success the edit session ends; on
// failure the draft is kept for another attempt.
func (s *Service) SubmitUpdate(ctx context.Context) (*model.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitUpdate"),
	)

	d := s.flow.State().Updating()
	if d == nil {
		return nil, ErrNotEditing
	}
	if !d.HasChanges {
		return nil, ErrNoChanges
	}
	p := s.preview(d)

	o := d.Draft
	req := backend.UpdateOrderRequest{
		CreateOrderRequest: backend.CreateOrderRequest{
			Type:          o.Type,
			OwnerID:       o.Owner.ID,
			TableID:       tableID(o.Table),
			Delivery:      delivery(o.Type, o.Delivery),
			PickupTime:    o.PickupTime,
			Items:         lines(o.Items, true),
			VoucherSlug:   slug(p.Quote),
			Note:          o.Note,
			PaymentMethod: o.PaymentMethod,
			Totals:        p.Quote.Totals,
		},
		Changes: p.Changes,
	}

	updated, err := s.backend.UpdateOrder(ctx, d.OriginalOrder.ID, req)
	if err != nil {
		log.Warn("order update rejected", zap.String("order_id", d.OriginalOrder.ID), zap.Error(err))
		return nil, fmt.Errorf("submit update: %w", err)
	}

	s.flow.CompleteUpdating()
	log.Info("order updated",
		zap.String("order_id", d.OriginalOrder.ID),
		zap.Int("added", p.Changes.Count(draft.KindAdded)),
		zap.Int("removed", p.Changes.Count(draft.KindRemoved)),
		zap.Int("quantity_changed", p.Changes.Count(draft.KindQuantityChanged)),
	)
	return updated, nil
}

// lines flattens items into backend lines. Line ids are only sent for edits,
// where the backend correlates them with existing lines.
func lines(items []model.Item, withIDs bool) []backend.Line {
	out := make([]backend.Line, 0, len(items))
	for _, it := range items {
		l := backend.Line{
			Quantity:  it.Quantity,
			VariantID: it.VariantID,
			Note:      it.Note,
		}
		if it.Promotion != nil {
			l.PromotionID = it.Promotion.ID
		}
		if withIDs {
			l.ID = it.ID
		}
		out = append(out, l)
	}
	return out
}

func slug(q pricing.Quote) string {
	if q.Voucher == nil || (q.Result != nil && !q.Result.Eligible) {
		return ""
	}
	return q.Voucher.Slug
}

func tableID(t *model.Table) string {
	if t == nil {
		return ""
	}
	return t.ID
}

func delivery(t model.OrderType, d model.Delivery) *model.Delivery {
	if t != model.OrderTypeDelivery || d.IsZero() {
		return nil
	}
	return &d
}

func placed(res *backend.CreateOrderResponse, d *flow.OrderingData) *model.Order {
	status := res.Status
	if status == "" {
		status = model.StatusPending
	}
	return &model.Order{
		ID:            res.ID,
		Code:          res.Code,
		Status:        status,
		Type:          d.Type,
		Owner:         d.Owner,
		Table:         model.CloneTable(d.Table),
		Delivery:      d.Delivery,
		PickupTime:    model.CloneTime(d.PickupTime),
		Items:         model.CloneItems(d.Items),
		Voucher:       d.Voucher.Clone(),
		Note:          d.Note,
		PaymentMethod: d.PaymentMethod,
	}
}
