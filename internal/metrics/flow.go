package metrics

import (
	"sync"
	"time"

	"posflow/internal/flow"
	"posflow/internal/voucher"
)

// StepIdle labels a state with no active phase.
const StepIdle flow.Step = "idle"

// Recorder counts what happens to the order flow. Observe is registered as a
// flow observer and Notifier wraps the notice sink.
type Recorder struct {
	Changes  Counter
	Detached Counter

	mu      sync.Mutex
	step    flow.Step
	entered map[flow.Step]*Counter
	reasons map[voucher.Reason]*Counter
	inStep  *Timer
}

func NewRecorder(now func() time.Time) *Recorder {
	return &Recorder{
		step:    StepIdle,
		entered: map[flow.Step]*Counter{},
		reasons: map[voucher.Reason]*Counter{},
		inStep:  NewTimer(now),
	}
}

func (r *Recorder) Observe(s flow.State) {
	r.Changes.Inc()

	step := StepIdle
	if s.Phase != nil {
		step = s.Step()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if step == r.step {
		return
	}
	r.step = step
	r.inStep.Reset()
	counter(r.entered, step).Inc()
}

// Notifier counts each notice before passing it on to next, which may be nil.
func (r *Recorder) Notifier(next func(flow.Notice)) func(flow.Notice) {
	return func(n flow.Notice) {
		r.Detached.Inc()
		r.mu.Lock()
		counter(r.reasons, n.Reason).Inc()
		r.mu.Unlock()
		if next != nil {
			next(n)
		}
	}
}

type Snapshot struct {
	Step         flow.Step                 `json:"step"`
	StepSeconds  float64                   `json:"stepSeconds"`
	StateChanges uint64                    `json:"stateChanges"`
	Entered      map[flow.Step]uint64      `json:"entered"`
	Detached     uint64                    `json:"vouchersDetached"`
	Reasons      map[voucher.Reason]uint64 `json:"detachReasons"`
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Step:         r.step,
		StepSeconds:  r.inStep.Duration().Seconds(),
		StateChanges: r.Changes.Load(),
		Entered:      make(map[flow.Step]uint64, len(r.entered)),
		Detached:     r.Detached.Load(),
		Reasons:      make(map[voucher.Reason]uint64, len(r.reasons)),
	}
	for k, c := range r.entered {
		s.Entered[k] = c.Load()
	}
	for k, c := range r.reasons {
		s.Reasons[k] = c.Load()
	}
	return s
}

func counter[K comparable](m map[K]*Counter, k K) *Counter {
	c, ok := m[k]
	if !ok {
		c = &Counter{}
		m[k] = c
	}
	return c
}
