package enums

import "testing"

func TestParsePaymentMethodAliases(t *testing.T) {
	cases := map[string]PaymentMethod{
		"cod":               PaymentMethodCashOnDelivery,
		"cash":              PaymentMethodCashOnDelivery,
		"card":              PaymentMethodCard,
		"Credit/Debit Card": PaymentMethodCard,
		"Cash on Delivery":  PaymentMethodCashOnDelivery,
	}
	for in, want := range cases {
		got, err := ParsePaymentMethod(in)
		if err != nil || got != want {
			t.Fatalf("ParsePaymentMethod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePaymentMethod("paypal"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestPaymentMethodPrePaid(t *testing.T) {
	if !PaymentMethodCard.PrePaid() || PaymentMethodCashOnDelivery.PrePaid() {
		t.Fatal("only card payments settle at placement")
	}
	if PaymentMethod("").IsValid() {
		t.Fatal("empty method must be invalid")
	}
}

func TestRoleFor(t *testing.T) {
	if RoleFor(true) != UserRoleAdmin || RoleFor(false) != UserRoleCustomer {
		t.Fatal("unexpected role mapping")
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestOutboxEnums(t *testing.T) {
	for _, e := range []OutboxEventType{EventOrderCreated, EventOrderPaid, EventOrderDelivered} {
		if !e.IsValid() {
			t.Fatalf("%q should be valid", e)
		}
	}
	if _, err := ParseOutboxEventType("order_refunded"); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if !AggregateOrder.IsValid() || !OutboxDLQReasonMaxAttempts.IsValid() {
		t.Fatal("expected known values to be valid")
	}
}
