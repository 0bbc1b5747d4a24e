package enums

import (
	"fmt"
	"strings"
)

// Destination is the shipping zone selected at checkout.
type Destination string

const (
	// DestinationDomestic ships within the store's home country.
	DestinationDomestic      Destination = "GB"
	DestinationEurope        Destination = "EU"
	DestinationInternational Destination = "WORLD"
)

var validDestinations = []Destination{
	DestinationDomestic,
	DestinationEurope,
	DestinationInternational,
}

// String implements fmt.Stringer.
func (d Destination) String() string {
	return string(d)
}

// IsValid reports whether the destination is recognized.
func (d Destination) IsValid() bool {
	for _, candidate := range validDestinations {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDestination converts a raw string into a Destination. Matching ignores case.
func ParseDestination(value string) (Destination, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validDestinations {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid destination %q", value)
}
