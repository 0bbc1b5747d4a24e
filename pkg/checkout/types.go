// Package checkout holds the pure pricing, stock, totals and idempotency rules
// shared by the cart validator and the checkout orchestrator.
package checkout

import "github.com/google/uuid"

// VariantSelector picks a product variant by its attributes. Color is optional;
// a nil color only matches colorless variants.
type VariantSelector struct {
	AgeGroup string  `json:"age_group" validate:"required"`
	Gender   string  `json:"gender" validate:"required"`
	Size     string  `json:"size" validate:"required"`
	Color    *string `json:"color,omitempty"`
}

// ItemRequest is a single cart line as submitted by the client. Any price or
// stock hints a client sends are never read.
type ItemRequest struct {
	ID        string           `json:"id" validate:"required"`
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gt=0,lte=100"`
	Variant   *VariantSelector `json:"variant,omitempty" validate:"omitempty"`
}
