package web

import (
	"context"
	"sort"
	"sync"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
)

type memOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*model.Order
	ListErr error
}

func newMemOrderRepo(orders ...*model.Order) *memOrderRepo {
	m := &memOrderRepo{orders: map[string]*model.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrderRepo) Save(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) FindByID(_ context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) ListByStatus(_ context.Context, status model.OrderStatus, limit int) ([]*model.Order, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrderRepo) CountByStatus(ctx context.Context, status model.OrderStatus) (int, error) {
	list, err := m.ListByStatus(ctx, status, len(m.orders))
	return len(list), err
}

type mockSessions struct {
	SessionFunc func(ctx context.Context, chatID int64) (model.Session, error)
}

func (m *mockSessions) Session(ctx context.Context, chatID int64) (model.Session, error) {
	if m.SessionFunc != nil {
		return m.SessionFunc(ctx, chatID)
	}
	return model.Session{ChatID: chatID, State: model.StateBrowsing}, nil
}
