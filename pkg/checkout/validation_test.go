package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

func TestValidateLines_Empty(t *testing.T) {
	err := ValidateLines(nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "no order items" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestValidateLines_Violations(t *testing.T) {
	err := ValidateLines([]LineValidationInput{
		{ProductID: "p1", Name: "Void Hoodie", Quantity: 1, UnitPrice: decimal.NewFromInt(120)},
		{ProductID: "", Quantity: 1},
		{ProductID: "p3", Quantity: 0},
		{ProductID: "p4", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type %T", typed.Details())
	}
	violations, ok := details["violations"].([]LineViolationDetail)
	if !ok {
		t.Fatalf("unexpected violations type %T", details["violations"])
	}
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %d", len(violations))
	}
	if violations[0].Index != 1 || violations[1].ProductID != "p3" || violations[2].ProductID != "p4" {
		t.Fatalf("unexpected violations %+v", violations)
	}
}

func TestValidateLines_OK(t *testing.T) {
	if err := ValidateLines([]LineValidationInput{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(45)}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
