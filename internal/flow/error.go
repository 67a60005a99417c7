package flow

import "errors"

var (
	// -- Transition prerequisites --
	ErrMissingOrderID       = errors.New("payment transition requires a created order id")
	ErrMissingOriginalOrder = errors.New("updating transition requires the original order")

	// -- Persistence --
	ErrCorruptState = errors.New("persisted order flow state is corrupt")
)
