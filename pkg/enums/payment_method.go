package enums

import "fmt"

// PaymentMethod describes how a portion of a sale is settled at the counter.
type PaymentMethod string

const (
	PaymentMethodCash              PaymentMethod = "cash"
	PaymentMethodDebitCard         PaymentMethod = "debit_card"
	PaymentMethodCreditCard        PaymentMethod = "credit_card"
	PaymentMethodPix               PaymentMethod = "pix"
	PaymentMethodBoleto            PaymentMethod = "boleto"
	PaymentMethodInstallmentCredit PaymentMethod = "installment_credit"
	PaymentMethodCrypto            PaymentMethod = "crypto"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodDebitCard,
	PaymentMethodCreditCard,
	PaymentMethodPix,
	PaymentMethodBoleto,
	PaymentMethodInstallmentCredit,
	PaymentMethodCrypto,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
