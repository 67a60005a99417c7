package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// Timer measures time since it was last reset.
type Timer struct {
	start atomic.Int64
	now   func() time.Time
}

func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	t := &Timer{now: now}
	t.Reset()
	return t
}

func (t *Timer) Reset() {
	t.start.Store(t.now().UnixNano())
}

func (t *Timer) Duration() time.Duration {
	return time.Duration(t.now().UnixNano() - t.start.Load())
}
