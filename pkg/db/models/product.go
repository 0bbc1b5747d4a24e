package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the authoritative catalog record checkout prices against.
// A nil PriceMinor means the product has no sellable base price; a nil Stock
// means unlimited.
type Product struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name       string           `gorm:"column:name;not null"`
	Currency   string           `gorm:"column:currency;not null"`
	PriceMinor *int64           `gorm:"column:price_minor"`
	IsActive   bool             `gorm:"column:is_active;not null"`
	Stock      *int             `gorm:"column:stock"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductVariant is a purchasable combination of attributes. PriceMinor, when
// set, overrides the product price (zero included).
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	AgeGroup   string    `gorm:"column:age_group;not null"`
	Gender     string    `gorm:"column:gender;not null"`
	Size       string    `gorm:"column:size;not null"`
	Color      *string   `gorm:"column:color"`
	Stock      *int      `gorm:"column:stock"`
	PriceMinor *int64    `gorm:"column:price_minor"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
