package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is created pending, linked to a payment intent once one exists, and
// only changes status through webhook reconciliation afterwards.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email           string            `gorm:"column:email;not null"`
	Currency        string            `gorm:"column:currency;not null"`
	Destination     enums.Destination `gorm:"column:destination;type:text;not null"`
	IdempotencyKey  string            `gorm:"column:idempotency_key;not null;uniqueIndex:orders_idempotency_key_key"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	SubtotalMinor   int64             `gorm:"column:subtotal_minor;not null"`
	ShippingMinor   int64             `gorm:"column:shipping_minor;not null"`
	TotalMinor      int64             `gorm:"column:total_minor;not null"`
	PaymentIntentID *string           `gorm:"column:payment_intent_id;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}

// OrderItem snapshots a validated cart line at checkout time.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceMinor int64      `gorm:"column:unit_price_minor;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// All lists every model, in dependency order, for schema bootstrapping.
func All() []any {
	return []any{&Product{}, &ProductVariant{}, &Order{}, &OrderItem{}}
}
