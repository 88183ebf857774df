package enums

import "fmt"

// PaymentMethod is the label stored on an order describing how it is settled.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentMethodCard           PaymentMethod = "Credit/Debit Card"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodCard,
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

// PrePaid reports whether orders using this method are settled at placement.
func (p PaymentMethod) PrePaid() bool {
	return p == PaymentMethodCard
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Short aliases
// ("cod", "card") are accepted for command line use.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch value {
	case "cod", "cash":
		return PaymentMethodCashOnDelivery, nil
	case "card":
		return PaymentMethodCard, nil
	}
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
