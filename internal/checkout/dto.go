package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Request is a revalidation-ready checkout submission.
type Request struct {
	Email       string
	Destination enums.Destination
	Items       []pkgcheckout.ItemRequest
}

// Result is what the client needs to confirm payment with the gateway.
type Result struct {
	ClientSecret    string               `json:"client_secret"`
	OrderID         uuid.UUID            `json:"order_id"`
	PaymentIntentID string               `json:"payment_intent_id"`
	Currency        string               `json:"currency"`
	Items           []cart.ValidatedItem `json:"items"`
	Subtotal        int64                `json:"subtotal"`
	Shipping        int64                `json:"shipping"`
	Total           int64                `json:"total"`
	Replayed        bool                 `json:"replayed"`
}
