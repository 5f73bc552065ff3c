package repository

import (
	"context"

	"telegram-fish-shop/internal/domain/model"
)

// OrderRepository journals completed checkouts.
type OrderRepository interface {
	Save(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]*model.Order, error)
	CountByStatus(ctx context.Context, status model.OrderStatus) (int, error)
}
