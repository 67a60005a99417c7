package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"posflow/internal/flow"

	"go.uber.org/zap"
)

const (
	// Key is where the order-flow state lives in the store.
	Key = "posflow/order-flow"

	// Version tags the envelope; older payloads are discarded, not migrated.
	Version = 1
)

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Adapter converts the flow state to and from the versioned envelope.
type Adapter struct {
	store Store
	log   *zap.Logger
}

func NewAdapter(store Store, log *zap.Logger) *Adapter {
	return &Adapter{store: store, log: log.With(zap.String("layer", "persist"))}
}

// Load returns the persisted state, or the empty state when nothing usable is
// stored. Failures are logged and never returned.
func (a *Adapter) Load(ctx context.Context) flow.State {
	s, err := a.load(ctx)
	switch {
	case err == nil:
		return s
	case errors.Is(err, ErrNotFound):
		a.log.Info("no persisted state", zap.String("key", Key))
	default:
		a.log.Warn("discarding persisted state", zap.String("key", Key), zap.Error(err))
	}
	return flow.State{}
}

func (a *Adapter) load(ctx context.Context) (flow.State, error) {
	raw, err := a.store.Get(ctx, Key)
	if err != nil {
		return flow.State{}, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return flow.State{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != Version {
		return flow.State{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, env.Version, Version)
	}

	var s flow.State
	if err := json.Unmarshal(env.State, &s); err != nil {
		return flow.State{}, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

func (a *Adapter) Save(ctx context.Context, s flow.State) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	raw, err := json.Marshal(envelope{Version: Version, State: state})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return a.store.Put(ctx, Key, raw)
}

func (a *Adapter) Clear(ctx context.Context) error {
	return a.store.Delete(ctx, Key)
}
