package cart

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msgProductUnavailable = "cart.product_unavailable"
	msgVariantUnavailable = "cart.variant_unavailable"
	msgPriceMissing       = "cart.price_missing"
	msgCurrencyMismatch   = "cart.currency_mismatch"
	msgOutOfStock         = "cart.out_of_stock"
	msgOnlyAvailable      = "cart.only_available"
)

// Localizer renders customer-facing messages for cart problems.
type Localizer interface {
	Message(key string, args ...any) string
}

type catalogLocalizer struct {
	printer *message.Printer
}

// NewLocalizer builds a localizer backed by the built-in English catalog.
// Unknown tags fall back to English.
func NewLocalizer(tag language.Tag) Localizer {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range englishMessages {
		_ = builder.SetString(language.English, key, text)
	}
	return &catalogLocalizer{printer: message.NewPrinter(tag, message.Catalog(builder))}
}

func (l *catalogLocalizer) Message(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

var englishMessages = map[string]string{
	msgProductUnavailable: "This product is no longer available",
	msgVariantUnavailable: "The selected option is no longer available",
	msgPriceMissing:       "This product cannot be purchased right now",
	msgCurrencyMismatch:   "This item is priced in %s but your cart is in %s",
	msgOutOfStock:         "out of stock",
	msgOnlyAvailable:      "only %d available",
}
