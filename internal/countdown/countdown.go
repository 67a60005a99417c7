// Package countdown enforces the edit window of a placed order. Once the
// window closes the order can no longer be edited locally.
package countdown

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Window is how long after creation an order stays editable.
const Window = 900 * time.Second

// Remaining is the time left in the edit window, never negative.
func Remaining(createdAt, now time.Time) time.Duration {
	left := createdAt.Add(Window).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func Expired(createdAt, now time.Time) bool {
	return Remaining(createdAt, now) == 0
}

type Expirer interface {
	HandleExpire(orderID string)
}

type Countdown struct {
	target Expirer
	now    func() time.Time
	log    *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	orderID string
}

func New(target Expirer, now func() time.Time, log *zap.Logger) *Countdown {
	if now == nil {
		now = time.Now
	}
	return &Countdown{
		target: target,
		now:    now,
		log:    log.With(zap.String("layer", "countdown")),
	}
}

// Start arms the countdown for orderID, replacing any running one, and
// returns the time left. An already expired order is expired immediately.
func (c *Countdown) Start(orderID string, createdAt time.Time) time.Duration {
	left := Remaining(createdAt, c.now())

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.orderID = orderID
	if left > 0 {
		c.timer = time.AfterFunc(left, func() { c.fire(orderID) })
	}
	c.mu.Unlock()

	if left == 0 {
		c.fire(orderID)
	}
	return left
}

// Stop disarms the countdown without expiring anything.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.orderID = ""
}

// Active returns the order being counted down, if any.
func (c *Countdown) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderID
}

func (c *Countdown) fire(orderID string) {
	c.mu.Lock()
	if c.orderID != orderID {
		c.mu.Unlock()
		return
	}
	c.orderID = ""
	c.timer = nil
	c.mu.Unlock()

	c.log.Info("edit window expired", zap.String("order_id", orderID))
	c.target.HandleExpire(orderID)
}
