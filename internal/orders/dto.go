package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// StatusView is what a client polls after confirming payment.
type StatusView struct {
	ID          uuid.UUID         `json:"id"`
	Status      enums.OrderStatus `json:"status"`
	Currency    string            `json:"currency"`
	Destination enums.Destination `json:"destination"`
	Subtotal    int64             `json:"subtotal"`
	Shipping    int64             `json:"shipping"`
	Total       int64             `json:"total"`
	Items       []ItemView        `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
}

type ItemView struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func newStatusView(order *models.Order) StatusView {
	items := make([]ItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemView{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPriceMinor})
	}
	return StatusView{
		ID:          order.ID,
		Status:      order.Status,
		Currency:    order.Currency,
		Destination: order.Destination,
		Subtotal:    order.SubtotalMinor,
		Shipping:    order.ShippingMinor,
		Total:       order.TotalMinor,
		Items:       items,
		CreatedAt:   order.CreatedAt,
	}
}
