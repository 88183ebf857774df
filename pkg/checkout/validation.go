package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
)

// LineValidationInput describes one submitted order line.
type LineValidationInput struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineViolationDetail exposes the data returned to callers when a validation fails.
type LineViolationDetail struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId,omitempty"`
	Reason    string `json:"reason"`
}

// ValidateLines ensures an order has at least one line and every line is well formed.
func ValidateLines(items []LineValidationInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no order items")
	}
	var violations []LineViolationDetail
	for i, item := range items {
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			violations = append(violations, LineViolationDetail{Index: i, Reason: "product is required"})
		case item.Quantity < 1:
			violations = append(violations, LineViolationDetail{Index: i, ProductID: item.ProductID, Reason: "quantity must be at least 1"})
		case item.UnitPrice.IsNegative():
			violations = append(violations, LineViolationDetail{Index: i, ProductID: item.ProductID, Reason: "price must not be negative"})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d invalid order item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
