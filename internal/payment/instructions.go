package payment

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	// Counter
	MethodCash = "CASH"
	MethodCard = "CARD"

	// QRIS
	MethodQRIS = "QRIS"

	// E-Wallet
	MethodOVO    = "OVO"
	MethodDANA   = "DANA"
	MethodGoPay  = "GOPAY"
	MethodShopee = "SHOPEEPAY"

	// Bank transfer
	MethodBankTransfer = "BANK_TRANSFER"

	// Paid to the courier on arrival
	MethodCOD = "COD"
)

type Kind string

const (
	KindCounter  Kind = "COUNTER"
	KindQR       Kind = "QR"
	KindEWallet  Kind = "EWALLET"
	KindTransfer Kind = "TRANSFER"
	KindCourier  Kind = "COURIER"
)

// Method is one way a pending order can be paid.
type Method struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// UsesQR methods are settled by scanning the QR code of the payment phase.
	UsesQR bool `json:"usesQr"`
}

var methods = map[string]Method{
	MethodCash:         {Code: MethodCash, Name: "Cash", Kind: KindCounter},
	MethodCard:         {Code: MethodCard, Name: "Debit / credit card", Kind: KindCounter},
	MethodQRIS:         {Code: MethodQRIS, Name: "QRIS", Kind: KindQR, UsesQR: true},
	MethodOVO:          {Code: MethodOVO, Name: "OVO", Kind: KindEWallet},
	MethodDANA:         {Code: MethodDANA, Name: "DANA", Kind: KindEWallet},
	MethodGoPay:        {Code: MethodGoPay, Name: "GoPay", Kind: KindEWallet, UsesQR: true},
	MethodShopee:       {Code: MethodShopee, Name: "ShopeePay", Kind: KindEWallet, UsesQR: true},
	MethodBankTransfer: {Code: MethodBankTransfer, Name: "Bank transfer", Kind: KindTransfer},
	MethodCOD:          {Code: MethodCOD, Name: "Cash on delivery", Kind: KindCourier},
}

// Lookup returns the method registered under code.
func Lookup(code string) (Method, error) {
	m, ok := methods[code]
	if !ok {
		return Method{}, fmt.Errorf("%w: %q", ErrUnknownMethod, code)
	}
	return m, nil
}

// Methods lists every method ordered by code.
func Methods() []Method {
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Method) int { return strings.Compare(a.Code, b.Code) })
	return out
}

var InstructionMap = map[string][]string{
	MethodCash: {
		"Hand {{amount}} in cash to the cashier",
		"Keep the receipt for order {{order_code}}",
	},

	MethodCard: {
		"Insert or tap the card on the terminal",
		"Check that the terminal shows {{amount}}",
		"Enter the card PIN and wait for approval",
	},

	MethodCOD: {
		"The order will be delivered to the address given",
		"Prepare {{amount}} in cash when the courier arrives",
		"Pay the courier directly and keep the receipt",
	},

	// ========================
	// QRIS
	// ========================
	MethodQRIS: {
		"Open any e-wallet or mobile banking app that supports QRIS",
		"Choose Scan / Pay",
		"Scan the QR code shown on screen",
		"Check the amount {{amount}}",
		"Confirm and complete the payment",
	},

	// ========================
	// E-WALLET
	// ========================
	MethodOVO: {
		"Open the OVO app",
		"Make sure the balance covers {{amount}}",
		"Confirm the payment in the notification",
		"Enter your OVO PIN to finish",
	},

	MethodDANA: {
		"Open the DANA app",
		"Make sure the balance covers {{amount}}",
		"Confirm the payment",
		"Enter your DANA PIN to finish",
	},

	MethodGoPay: {
		"Open the Gojek app and choose Pay",
		"Scan the QR code shown on screen",
		"Check the amount {{amount}} and confirm",
	},

	MethodShopee: {
		"Open the Shopee app",
		"Scan the QR code shown on screen",
		"Make sure the ShopeePay balance covers {{amount}}",
		"Enter your ShopeePay PIN",
	},

	// ========================
	// BANK TRANSFER
	// ========================
	MethodBankTransfer: {
		"Open your mobile banking app or go to an ATM",
		"Choose Transfer and enter account number {{payment_code}}",
		"Transfer exactly {{amount}}",
		"Use {{order_code}} as the transfer reference",
	},
}

func GetInstructions(method string) []string {
	if steps, ok := InstructionMap[method]; ok {
		return steps
	}

	return []string{
		"Follow the payment instructions shown at the counter",
	}
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}

// Instructions renders the steps for method with the order's amount and codes filled in.
func Instructions(method string, amount int64, paymentCode, orderCode string) []string {
	return InjectVariables(GetInstructions(method), InstructionVars{
		"amount":       FormatAmount(amount),
		"payment_code": paymentCode,
		"order_code":   orderCode,
	})
}

// FormatAmount renders whole rupiah with dot thousands separators, e.g. Rp 72.000.
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}
