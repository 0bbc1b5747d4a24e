package checkout

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// ShippingRates are flat rates in minor units. Domestic orders ship free at or
// above FreeThreshold.
type ShippingRates struct {
	Domestic      int64
	FreeThreshold int64
	Europe        int64
	International int64
}

type Line struct {
	UnitPrice int64
	Quantity  int
}

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// CalculateTotals is pure: it never looks at anything beyond its arguments.
func CalculateTotals(lines []Line, destination enums.Destination, rates ShippingRates) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	shipping := ShippingFor(destination, subtotal, rates)
	return Totals{Subtotal: subtotal, Shipping: shipping, Total: subtotal + shipping}
}

// ShippingFor prices unknown destinations at the international rate.
func ShippingFor(destination enums.Destination, subtotal int64, rates ShippingRates) int64 {
	switch destination {
	case enums.DestinationDomestic:
		if subtotal >= rates.FreeThreshold {
			return 0
		}
		return rates.Domestic
	case enums.DestinationEurope:
		return rates.Europe
	default:
		return rates.International
	}
}
