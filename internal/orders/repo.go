package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its item snapshots together.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return r.findOne(ctx, "idempotency_key = ?", key)
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	return r.findOne(ctx, "payment_intent_id = ?", intentID)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where(query, args...).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// LinkPaymentIntent sets the intent id only while the order has none.
func (r *repository) LinkPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_intent_id IS NULL", orderID).
		Update("payment_intent_id", intentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("link %s: %w", orderID, ErrAlreadyLinked)
	}
	return nil
}

// TransitionStatus moves the order to `to` only from one of the states the
// transition table allows. moved is false when the order was already elsewhere.
func (r *repository) TransitionStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error) {
	return r.TransitionStatusFrom(ctx, orderID, to.AllowedFrom(), to)
}

// TransitionStatusFrom narrows the move to a subset of source states, so a
// caller can tell which kind of state the order left. Every source must be a
// legal transition into `to`.
func (r *repository) TransitionStatusFrom(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("no transition into %s", to)
	}
	for _, status := range from {
		if !status.CanTransitionTo(to) {
			return false, fmt.Errorf("illegal transition %s -> %s", status, to)
		}
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RetireIdempotencyKey frees the key held by a failed order so the same
// submission can start a fresh one.
func (r *repository) RetireIdempotencyKey(ctx context.Context, order *models.Order) error {
	retired := fmt.Sprintf("%s:retired:%s", order.IdempotencyKey, order.ID)
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND idempotency_key = ? AND status = ?", order.ID, order.IdempotencyKey, enums.OrderStatusFailed).
		Update("idempotency_key", retired)
	if res.Error != nil {
		return res.Error
	}
	order.IdempotencyKey = retired
	return nil
}

// Delete removes an order and its items. Only the checkout compensation path
// calls it, for orders that never acquired a payment intent.
func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", orderID).Delete(&models.Order{}).Error
	})
}
