package backend

import "errors"

var (
	// -- Responses --
	ErrRejected      = errors.New("backend rejected the request")
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrderID  = errors.New("order id is empty")
)
