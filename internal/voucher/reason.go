package voucher

// Reason explains why a voucher cannot be applied.
type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonInactive                 Reason = "INACTIVE"
	ReasonExpired                  Reason = "EXPIRED"
	ReasonNotStarted               Reason = "NOT_STARTED"
	ReasonOutOfStock               Reason = "OUT_OF_STOCK"
	ReasonMinOrderNotMet           Reason = "MIN_ORDER_NOT_MET"
	ReasonProductsNotApplicable    Reason = "PRODUCTS_NOT_APPLICABLE"
	ReasonVerificationRequired     Reason = "VERIFICATION_REQUIRED"
	ReasonTooManyItems             Reason = "TOO_MANY_ITEMS"
	ReasonPaymentMethodUnsupported Reason = "PAYMENT_METHOD_NOT_SUPPORTED"
)

var messages = map[Reason]string{
	ReasonInactive:                 "Voucher is no longer active",
	ReasonExpired:                  "Voucher has expired",
	ReasonNotStarted:               "Voucher is not available yet",
	ReasonOutOfStock:               "Voucher has been fully redeemed",
	ReasonMinOrderNotMet:           "Order total is below the voucher minimum",
	ReasonProductsNotApplicable:    "Voucher does not apply to the products in this order",
	ReasonVerificationRequired:     "Voucher requires a verified customer account",
	ReasonTooManyItems:             "Order has more items than the voucher allows",
	ReasonPaymentMethodUnsupported: "Voucher cannot be used with this payment method",
}

// Message is the human-facing text for a reason code.
func (r Reason) Message() string {
	return messages[r]
}
