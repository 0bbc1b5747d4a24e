// Package inventory applies relative stock movements for products and variants.
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Ledger adjusts stock with single relative UPDATE statements so concurrent
// movements never lose each other. Rows whose stock is NULL (unlimited) are
// left untouched. Stock is not clamped at zero: a sale the gateway already
// captured is recorded even if it oversells.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Increment(ctx context.Context, items []models.OrderItem) error
	Decrement(ctx context.Context, items []models.OrderItem) error
}

type ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{db: tx}
}

// Increment puts each item's quantity back on the shelf (refunds).
func (l *ledger) Increment(ctx context.Context, items []models.OrderItem) error {
	return l.apply(ctx, items, 1)
}

// Decrement takes each item's quantity off the shelf (payments).
func (l *ledger) Decrement(ctx context.Context, items []models.OrderItem) error {
	return l.apply(ctx, items, -1)
}

func (l *ledger) apply(ctx context.Context, items []models.OrderItem, sign int) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if err := l.adjust(ctx, item.ProductID, item.VariantID, sign*item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// adjust moves variant stock when the line references a variant, product
// stock otherwise.
func (l *ledger) adjust(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, delta int) error {
	var model any = &models.Product{}
	target := productID
	if variantID != nil {
		model = &models.ProductVariant{}
		target = *variantID
	}

	err := l.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND stock IS NOT NULL", target).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("adjust stock for %s by %d: %w", target, delta, err)
	}
	return nil
}
