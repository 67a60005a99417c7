package persist

import "errors"

var (
	// -- Store --
	ErrNotFound      = errors.New("key not found")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrNoDatabase    = errors.New("postgres store requires a database connection")

	// -- Envelope --
	ErrVersionMismatch = errors.New("persisted state has an incompatible version")
)
