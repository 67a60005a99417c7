package api

import (
	"sync"

	"posflow/internal/flow"
)

const noticeCapacity = 50

// Notices buffers voucher notices until the UI drains them. The oldest are
// dropped once the buffer is full.
type Notices struct {
	mu    sync.Mutex
	items []flow.Notice
}

func NewNotices() *Notices {
	return &Notices{}
}

// Push is meant to be passed to flow.WithNotifier.
func (n *Notices) Push(notice flow.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = append(n.items, notice)
	if over := len(n.items) - noticeCapacity; over > 0 {
		n.items = append([]flow.Notice(nil), n.items[over:]...)
	}
}

// Drain returns every buffered notice, oldest first, and empties the buffer.
func (n *Notices) Drain() []flow.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.items
	n.items = nil
	if out == nil {
		out = []flow.Notice{}
	}
	return out
}
