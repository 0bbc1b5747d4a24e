package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ErrAlreadyLinked is returned when an order already carries a payment intent.
var ErrAlreadyLinked = errors.New("order already linked to a payment intent")

// Repository defines persistence operations for orders and their items.
// Finders return (nil, nil) when no row matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	LinkPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	TransitionStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error)
	TransitionStatusFrom(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error)
	RetireIdempotencyKey(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}
