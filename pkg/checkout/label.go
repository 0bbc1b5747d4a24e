package checkout

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VariantLabel renders "Name (gender / age group / SIZE / Color)", omitting
// empty parts. Without a variant it returns the product name untouched.
func VariantLabel(productName string, variant *VariantSelector) string {
	if variant == nil {
		return productName
	}

	var parts []string
	appendPart := func(value string) {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	appendPart(variant.Gender)
	appendPart(variant.AgeGroup)
	appendPart(strings.ToUpper(variant.Size))
	if variant.Color != nil {
		appendPart(cases.Title(language.English).String(strings.TrimSpace(*variant.Color)))
	}

	if len(parts) == 0 {
		return productName
	}
	return productName + " (" + strings.Join(parts, " / ") + ")"
}
