// Package poller re-fetches an order while it is being edited so that status
// changes made elsewhere (kitchen, cashier) reach the local draft.
package poller

import (
	"context"
	"sync"
	"time"

	"posflow/internal/flow"
	"posflow/internal/model"

	"go.uber.org/zap"
)

const DefaultInterval = 10 * time.Second

type OrderFetcher interface {
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

type Machine interface {
	State() flow.State
	InitializeUpdating(o *model.Order) error
}

type Poller struct {
	fetcher  OrderFetcher
	machine  Machine
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(fetcher OrderFetcher, machine Machine, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		machine:  machine,
		interval: interval,
		log:      log.With(zap.String("layer", "poller")),
	}
}

// Watch starts polling orderID in the background, replacing any earlier watch.
func (p *Poller) Watch(ctx context.Context, orderID string) {
	p.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.Run(ctx, orderID)
	}()
}

// Stop cancels the running watch and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Run polls until ctx is done, the order is no longer being edited, or the
// order has left the pending status.
func (p *Poller) Run(ctx context.Context, orderID string) {
	log := p.log.With(zap.String("order_id", orderID))
	log.Info("polling started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("polling cancelled")
			return
		case <-ticker.C:
			if p.poll(ctx, orderID) {
				log.Info("polling finished")
				return
			}
		}
	}
}

// poll runs one fetch and reports whether polling should stop. The draft is
// only rebuilt when the fetched status differs from the one being edited, so
// unsaved edits survive ordinary ticks.
func (p *Poller) poll(ctx context.Context, orderID string) bool {
	known := p.editing(orderID)
	if known == nil {
		return true
	}

	fresh, err := p.fetcher.GetOrder(ctx, orderID)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("poll fetch failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return false
	}

	if fresh.Status != known.Status {
		// The user may have left editing while the fetch was in flight.
		if p.editing(orderID) == nil {
			return true
		}
		p.log.Info("order status changed",
			zap.String("order_id", orderID),
			zap.String("from", string(known.Status)),
			zap.String("to", string(fresh.Status)),
		)
		if err := p.machine.InitializeUpdating(fresh); err != nil {
			p.log.Error("reinitialize draft failed", zap.Error(err))
		}
	}

	return fresh.Status != "" && fresh.Status != model.StatusPending
}

func (p *Poller) editing(orderID string) *model.Order {
	d := p.machine.State().Updating()
	if d == nil || d.OriginalOrder == nil || d.OriginalOrder.ID != orderID {
		return nil
	}
	return d.OriginalOrder
}
