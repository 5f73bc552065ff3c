// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/repository"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	List(ctx context.Context, status model.OrderStatus, limit int) ([]*model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	MarkContacted(ctx context.Context, id string) (*model.Order, error)
	// Pending returns how many orders still wait for a call and the oldest few of them.
	Pending(ctx context.Context, limit int) (int, []*model.Order, error)
}

const maxListLimit = 200

type orderUC struct {
	orders repository.OrderRepository
	now    func() time.Time
	log    *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, logger *zerolog.Logger) *orderUC {
	l := logger.With().Str("component", "OrderUC").Logger()
	return &orderUC{orders: orders, now: time.Now, log: &l}
}

func (u *orderUC) List(ctx context.Context, status model.OrderStatus, limit int) ([]*model.Order, error) {
	switch status {
	case model.OrderStatusPendingContact, model.OrderStatusContacted:
	default:
		return nil, domain.ErrInvalidArgument
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return u.orders.ListByStatus(ctx, status, limit)
}

func (u *orderUC) Get(ctx context.Context, id string) (*model.Order, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.orders.FindByID(ctx, id)
}

func (u *orderUC) MarkContacted(ctx context.Context, id string) (*model.Order, error) {
	o, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == model.OrderStatusContacted {
		return o, nil
	}
	o.MarkContacted(u.now())
	if err := u.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	u.log.Info().Str("order_id", o.ID).Msg("order marked contacted")
	return o, nil
}

func (u *orderUC) Pending(ctx context.Context, limit int) (int, []*model.Order, error) {
	n, err := u.orders.CountByStatus(ctx, model.OrderStatusPendingContact)
	if err != nil || n == 0 {
		return n, nil, err
	}
	if limit <= 0 {
		return n, nil, nil
	}
	list, err := u.orders.ListByStatus(ctx, model.OrderStatusPendingContact, limit)
	if err != nil {
		return 0, nil, err
	}
	return n, list, nil
}
