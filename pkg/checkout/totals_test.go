package checkout

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var testRates = ShippingRates{Domestic: 395, FreeThreshold: 5000, Europe: 995, International: 1495}

func TestCalculateTotalsDomesticBelowThreshold(t *testing.T) {
	got := CalculateTotals([]Line{{UnitPrice: 2500, Quantity: 1}}, enums.DestinationDomestic, testRates)
	want := Totals{Subtotal: 2500, Shipping: 395, Total: 2895}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}
}

func TestCalculateTotalsDomesticFreeAtThreshold(t *testing.T) {
	lines := []Line{{UnitPrice: 2500, Quantity: 2}}
	got := CalculateTotals(lines, enums.DestinationDomestic, testRates)
	if got.Shipping != 0 || got.Total != 5000 {
		t.Fatalf("expected free shipping at threshold, got %+v", got)
	}

	got = CalculateTotals([]Line{{UnitPrice: 4999, Quantity: 1}}, enums.DestinationDomestic, testRates)
	if got.Shipping != testRates.Domestic {
		t.Fatalf("expected domestic rate just below threshold, got %+v", got)
	}
}

func TestCalculateTotalsFlatTiers(t *testing.T) {
	lines := []Line{{UnitPrice: 10000, Quantity: 3}}
	if got := CalculateTotals(lines, enums.DestinationEurope, testRates); got.Shipping != 995 || got.Total != 30995 {
		t.Fatalf("unexpected EU totals %+v", got)
	}
	if got := CalculateTotals(lines, enums.DestinationInternational, testRates); got.Shipping != 1495 || got.Total != 31495 {
		t.Fatalf("unexpected WORLD totals %+v", got)
	}
}

func TestCalculateTotalsDeterministic(t *testing.T) {
	lines := []Line{{UnitPrice: 1200, Quantity: 2}, {UnitPrice: 0, Quantity: 4}, {UnitPrice: 350, Quantity: 1}}
	first := CalculateTotals(lines, enums.DestinationEurope, testRates)
	for i := 0; i < 10; i++ {
		if got := CalculateTotals(lines, enums.DestinationEurope, testRates); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
	if first.Subtotal != 2750 {
		t.Fatalf("unexpected subtotal %d", first.Subtotal)
	}
}
