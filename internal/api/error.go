package api

import "errors"

var (
	// -- Phase --
	ErrNoCart       = errors.New("no active cart")
	ErrNotPaying    = errors.New("no order awaiting payment")
	ErrNotEditing   = errors.New("no order being edited")
	ErrMutationLost = errors.New("request was not applied")

	// -- Editing --
	ErrEditWindowClosed = errors.New("edit window has closed")
	ErrNotEditable      = errors.New("only pending orders can be edited")

	// -- Input --
	ErrInvalidBody      = errors.New("invalid request body")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidOrderType = errors.New("unknown order type")
	ErrUnauthenticated  = errors.New("authentication required")
)
