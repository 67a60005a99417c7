package payment

import "errors"

var (
	// -- Methods --
	ErrUnknownMethod = errors.New("unknown payment method")

	// -- QR --
	ErrInvalidQR = errors.New("invalid QR payload")
)
