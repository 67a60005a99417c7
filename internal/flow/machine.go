// Package flow is the order-flow state machine: a cart being built, a placed
// order awaiting payment, or an existing order being edited. Mutators never
// fail for expected control flow; calls against an inactive phase are no-ops.
package flow

import (
	"sync"
	"time"

	"posflow/internal/logger"
	"posflow/internal/model"
	"posflow/internal/voucher"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notice reports a voucher the machine detached because it stopped being eligible.
type Notice struct {
	Step    Step           `json:"step"`
	Voucher *model.Voucher `json:"voucher"`
	Reason  voucher.Reason `json:"reasonCode"`
	Message string         `json:"message"`
}

type Observer func(State)

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Machine) { m.newID = newID }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithObserver registers a callback run with a copy of the state after every change.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observers = append(m.observers, o) }
}

func WithNotifier(fn func(Notice)) Option {
	return func(m *Machine) { m.notify = fn }
}

// Machine owns the order-flow state. Every mutation clones the active phase,
// edits the clone and swaps it in whole; observers and notifiers run after the
// lock is released so they may call back into the machine.
type Machine struct {
	mu        sync.Mutex
	state     State
	now       func() time.Time
	newID     func() string
	log       *zap.Logger
	observers []Observer
	notify    func(Notice)
}

func New(opts ...Option) *Machine {
	m := &Machine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.L()
	}
	m.log = m.log.With(zap.String("layer", "flow"))
	return m
}

// State returns a deep copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Step()
}

func (m *Machine) LastModified() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastModified
}

// Hydrate replaces the state with one loaded from storage and marks it hydrated.
func (m *Machine) Hydrate(s State) {
	m.mu.Lock()
	m.state = s.Clone()
	m.state.IsHydrated = true
	m.mu.Unlock()

	m.log.Info("state hydrated", zap.String("step", string(s.Step())))
}

// ClearAll drops every phase.
func (m *Machine) ClearAll() {
	m.transition("ClearAll", nil, nil)
}

// transition swaps in the next phase when the optional condition holds for
// the current state.
func (m *Machine) transition(method string, next Phase, when func(State) bool) bool {
	m.mu.Lock()
	if when != nil && !when(m.state) {
		m.mu.Unlock()
		return false
	}
	from := m.state.Step()
	m.state.Phase = next
	m.state.LastModified = m.now()
	snap := m.state.Clone()
	m.mu.Unlock()

	m.log.Info("phase transition",
		zap.String("method", method),
		zap.String("from", string(from)),
		zap.String("to", string(snap.Step())),
	)
	m.emit(snap, nil)
	return true
}

// update runs fn against a private copy of the active phase of type P. fn
// reports whether it changed anything; unchanged or inactive phases are no-ops.
func update[P Phase](m *Machine, method string, fn func(p P) bool, guard func(P) *Notice) bool {
	m.mu.Lock()
	cur, active := m.state.Phase.(P)
	if !active {
		m.mu.Unlock()
		m.log.Debug("mutator ignored, phase not active", zap.String("method", method))
		return false
	}

	next := cur.clonePhase().(P)
	if !fn(next) {
		m.mu.Unlock()
		return false
	}

	var notices []Notice
	if guard != nil {
		if n := guard(next); n != nil {
			notices = append(notices, *n)
		}
	}

	m.state.Phase = next
	m.state.LastModified = m.now()
	snap := m.state.Clone()
	m.mu.Unlock()

	m.emit(snap, notices)
	return true
}

func (m *Machine) emit(s State, notices []Notice) {
	for _, n := range notices {
		m.log.Info("voucher detached",
			zap.String("step", string(n.Step)),
			zap.String("voucher_id", n.Voucher.ID),
			zap.String("reason", string(n.Reason)),
		)
		if m.notify != nil {
			m.notify(n)
		}
	}
	for _, o := range m.observers {
		o(s.Clone())
	}
}
