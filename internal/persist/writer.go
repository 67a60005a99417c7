package persist

import (
	"context"
	"sync"

	"posflow/internal/flow"

	"go.uber.org/zap"
)

type Saver interface {
	Save(ctx context.Context, s flow.State) error
}

// Writer saves state off the caller's goroutine. Only the latest state is
// kept; intermediate states queued while a save is running are skipped.
type Writer struct {
	saver Saver
	log   *zap.Logger

	mu      sync.Mutex
	pending *flow.State

	wake chan struct{}
	done chan struct{}
}

func NewWriter(saver Saver, log *zap.Logger) *Writer {
	return &Writer{
		saver: saver,
		log:   log.With(zap.String("layer", "persist")),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Observe queues s for saving. It never blocks, so it can be registered as a
// flow observer.
func (w *Writer) Observe(s flow.State) {
	w.mu.Lock()
	w.pending = &s
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run saves queued states until ctx is cancelled, then writes whatever is
// still pending and returns.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return
		case <-w.wake:
			w.flush(ctx)
		}
	}
}

// Done is closed once Run has returned.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

func (w *Writer) flush(ctx context.Context) {
	w.mu.Lock()
	s := w.pending
	w.pending = nil
	w.mu.Unlock()

	if s == nil {
		return
	}
	if err := w.saver.Save(ctx, *s); err != nil {
		w.log.Warn("state save failed", zap.String("step", string(s.Step())), zap.Error(err))
	}
}
