package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/aura-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

type Shipping struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// Card is only collected to gate submission; it never leaves the client.
type Card struct {
	Number string `json:"cardNumber" validate:"required"`
	Name   string `json:"cardName" validate:"required"`
	Expiry string `json:"expiry" validate:"required"`
	CVV    string `json:"cvv" validate:"required"`
}

// Draft is what the shopper fills in on the checkout form.
type Draft struct {
	Shipping      Shipping            `json:"shipping" validate:"-"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"required"`
	Card          Card                `json:"card" validate:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(Draft)
		if d.PaymentMethod != "" && !d.PaymentMethod.IsValid() {
			sl.ReportError(d.PaymentMethod, "paymentMethod", "PaymentMethod", "oneof", "")
		}
	}, Draft{})
	return v
}

func (d Draft) normalized() Draft {
	d.Shipping.Address = strings.TrimSpace(d.Shipping.Address)
	d.Shipping.City = strings.TrimSpace(d.Shipping.City)
	d.Shipping.PostalCode = strings.TrimSpace(d.Shipping.PostalCode)
	d.Shipping.Country = strings.TrimSpace(d.Shipping.Country)
	d.Card.Number = strings.TrimSpace(d.Card.Number)
	d.Card.Name = strings.TrimSpace(d.Card.Name)
	d.Card.Expiry = strings.TrimSpace(d.Card.Expiry)
	d.Card.CVV = strings.TrimSpace(d.Card.CVV)
	return d
}

// Validate checks the draft without touching the network. Card fields are
// only required when paying by card.
func (d Draft) Validate() error {
	d = d.normalized()
	details := map[string]string{}
	collect(details, validate.Struct(d.Shipping))
	collect(details, validate.Struct(d))
	if d.PaymentMethod == enums.PaymentMethodCard {
		collect(details, validate.Struct(d.Card))
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "please complete the checkout form").WithDetails(details)
}

func collect(details map[string]string, err error) {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return
	}
	for _, fe := range errs {
		details[fe.Field()] = message(fe)
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be %q or %q", enums.PaymentMethodCashOnDelivery, enums.PaymentMethodCard)
	}
	return "is invalid"
}
