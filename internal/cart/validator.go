// Package cart revalidates client carts against authoritative product data.
package cart

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ValidatedItem is a cart line whose price, stock and currency were checked
// against the catalog. Only the validator creates these.
type ValidatedItem struct {
	LineID    string                    `json:"id"`
	ProductID uuid.UUID                 `json:"product_id"`
	VariantID *uuid.UUID                `json:"variant_id,omitempty"`
	Name      string                    `json:"name"`
	Currency  string                    `json:"currency"`
	UnitPrice int64                     `json:"unit_price"`
	Quantity  int                       `json:"quantity"`
	Variant   *checkout.VariantSelector `json:"variant,omitempty"`
}

// ItemError explains why one cart line was rejected.
type ItemError struct {
	LineID    string                  `json:"id"`
	ProductID uuid.UUID               `json:"product_id"`
	Code      enums.CartItemErrorCode `json:"code"`
	Message   string                  `json:"message"`
	Available *int                    `json:"available,omitempty"`
}

type Result struct {
	Currency string
	Items    []ValidatedItem
	Errors   []ItemError
}

// Valid reports whether every line passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Lines converts validated items into totals input.
func (r Result) Lines() []checkout.Line {
	lines := make([]checkout.Line, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, checkout.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	return lines
}

type Validator struct {
	localizer Localizer
}

func NewValidator(localizer Localizer) *Validator {
	return &Validator{localizer: localizer}
}

// Validate checks every line independently and never aborts on the first bad
// one, so the client can show all problems at once.
func (v *Validator) Validate(items []checkout.ItemRequest, products map[uuid.UUID]models.Product) Result {
	currency := checkout.ValidateCartCurrency(currencyLines(items, products))
	mismatched := make(map[string]struct{}, len(currency.MismatchedIDs))
	for _, id := range currency.MismatchedIDs {
		mismatched[id] = struct{}{}
	}

	res := Result{Currency: currency.Primary}
	for idx, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			res.Errors = append(res.Errors, v.itemError(item, enums.CartItemErrorNotFound, v.localizer.Message(msgProductUnavailable), nil))
			continue
		}
		if _, bad := mismatched[strconv.Itoa(idx)]; bad {
			msg := v.localizer.Message(msgCurrencyMismatch, strings.ToUpper(product.Currency), strings.ToUpper(currency.Primary))
			res.Errors = append(res.Errors, v.itemError(item, enums.CartItemErrorCurrencyMismatch, msg, nil))
			continue
		}

		var variant *models.ProductVariant
		if item.Variant != nil {
			variant = matchVariant(product.Variants, item.Variant)
			if variant == nil {
				res.Errors = append(res.Errors, v.itemError(item, enums.CartItemErrorNotFound, v.localizer.Message(msgVariantUnavailable), nil))
				continue
			}
		}

		var override *int64
		stock := product.Stock
		if variant != nil {
			override = variant.PriceMinor
			stock = variant.Stock
		}

		price, priced := checkout.ResolvePrice(product.PriceMinor, override)
		if !priced {
			res.Errors = append(res.Errors, v.itemError(item, enums.CartItemErrorNotFound, v.localizer.Message(msgPriceMissing), nil))
			continue
		}

		if check := checkout.CheckStock(stock, item.Quantity); !check.Available {
			onHand := max(check.OnHand, 0)
			msg := v.localizer.Message(msgOutOfStock)
			if onHand > 0 {
				msg = v.localizer.Message(msgOnlyAvailable, onHand)
			}
			res.Errors = append(res.Errors, v.itemError(item, enums.CartItemErrorOutOfStock, msg, &onHand))
			continue
		}

		validated := ValidatedItem{
			LineID:    item.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Currency:  strings.ToLower(product.Currency),
			UnitPrice: price,
			Quantity:  item.Quantity,
		}
		if variant != nil {
			id := variant.ID
			validated.VariantID = &id
			validated.Variant = selectorFor(variant)
			validated.Name = checkout.VariantLabel(product.Name, validated.Variant)
		}
		res.Items = append(res.Items, validated)
	}
	return res
}

func (v *Validator) itemError(item checkout.ItemRequest, code enums.CartItemErrorCode, msg string, available *int) ItemError {
	return ItemError{LineID: item.ID, ProductID: item.ProductID, Code: code, Message: msg, Available: available}
}

// currencyLines lists, keyed by line position, the currency of every line whose
// product exists and is active. The first of them sets the cart currency.
func currencyLines(items []checkout.ItemRequest, products map[uuid.UUID]models.Product) []checkout.CurrencyLine {
	lines := make([]checkout.CurrencyLine, 0, len(items))
	for idx, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			continue
		}
		lines = append(lines, checkout.CurrencyLine{ID: strconv.Itoa(idx), Currency: strings.ToLower(product.Currency)})
	}
	return lines
}

// matchVariant compares attributes case-insensitively. A selector without a
// color only matches colorless variants.
func matchVariant(variants []models.ProductVariant, sel *checkout.VariantSelector) *models.ProductVariant {
	wantColor := ""
	if sel.Color != nil {
		wantColor = strings.TrimSpace(*sel.Color)
	}
	for i := range variants {
		candidate := &variants[i]
		if !sameAttr(candidate.AgeGroup, sel.AgeGroup) || !sameAttr(candidate.Gender, sel.Gender) || !sameAttr(candidate.Size, sel.Size) {
			continue
		}
		haveColor := ""
		if candidate.Color != nil {
			haveColor = strings.TrimSpace(*candidate.Color)
		}
		if strings.EqualFold(haveColor, wantColor) {
			return candidate
		}
	}
	return nil
}

// selectorFor describes the matched variant with its stored attribute values.
func selectorFor(variant *models.ProductVariant) *checkout.VariantSelector {
	return &checkout.VariantSelector{
		AgeGroup: variant.AgeGroup,
		Gender:   variant.Gender,
		Size:     variant.Size,
		Color:    variant.Color,
	}
}

func sameAttr(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
