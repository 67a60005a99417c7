package checkout

import "errors"

var (
	// -- Submission --
	ErrNoCart      = errors.New("no cart is being built")
	ErrEmptyCart   = errors.New("cart has no items")
	ErrNotEditing  = errors.New("no order is being edited")
	ErrNoChanges   = errors.New("draft has no changes")
	ErrEmptyResult = errors.New("backend returned no order id")
)
