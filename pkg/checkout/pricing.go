package checkout

import "github.com/shopspring/decimal"

var (
	// FreeShippingThreshold is exclusive: an order must exceed it to ship free.
	FreeShippingThreshold = decimal.NewFromInt(100)
	// FlatShippingPrice applies to every order at or below the threshold.
	FlatShippingPrice = decimal.NewFromInt(10)
)

// PricedLine is the minimum a line needs to contribute to an order's totals.
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals are the three derived price fields stored on an order.
type Totals struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Subtotal sums unitPrice x quantity at full precision.
func Subtotal(lines []PricedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

// ShippingFor returns the shipping charge for the given items price.
func ShippingFor(itemsPrice decimal.Decimal) decimal.Decimal {
	if itemsPrice.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingPrice
}

// Compute derives the order totals. The shipping rule sees the unrounded
// subtotal; only the returned fields are rounded to cents.
func Compute(lines []PricedLine) Totals {
	items := Subtotal(lines)
	shipping := ShippingFor(items)
	return Totals{
		ItemsPrice:    items.Round(2),
		ShippingPrice: shipping.Round(2),
		TotalPrice:    items.Add(shipping).Round(2),
	}
}

// Matches reports whether the supplied totals equal the computed ones, ignoring scale.
func (t Totals) Matches(other Totals) bool {
	return t.ItemsPrice.Equal(other.ItemsPrice) &&
		t.ShippingPrice.Equal(other.ShippingPrice) &&
		t.TotalPrice.Equal(other.TotalPrice)
}
