package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes read access to orders for the storefront client.
type Service interface {
	GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusView, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusView, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	view := newStatusView(order)
	return &view, nil
}
