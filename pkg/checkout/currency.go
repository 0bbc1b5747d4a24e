package checkout

// CurrencyLine pairs a cart line id with the currency its product is priced in.
type CurrencyLine struct {
	ID       string
	Currency string
}

type CurrencyCheck struct {
	Valid         bool
	Primary       string
	MismatchedIDs []string
}

// ValidateCartCurrency requires every line to share the first line's currency.
func ValidateCartCurrency(lines []CurrencyLine) CurrencyCheck {
	if len(lines) == 0 {
		return CurrencyCheck{Valid: true}
	}

	check := CurrencyCheck{Primary: lines[0].Currency}
	for _, line := range lines[1:] {
		if line.Currency != check.Primary {
			check.MismatchedIDs = append(check.MismatchedIDs, line.ID)
		}
	}
	check.Valid = len(check.MismatchedIDs) == 0
	return check
}
