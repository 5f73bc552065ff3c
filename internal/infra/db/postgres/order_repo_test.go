//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/infra/security"
)

func TestOrderRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	sealer, err := security.NewSealer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	repo := NewOrderRepo(testPool, sealer)

	newOrder := func(t *testing.T, chatID int64, lines ...model.CartLine) *model.Order {
		t.Helper()
		o, err := model.NewOrder(chatID, "cust-1",
			model.CustomerFields{Name: "Jane Doe", Email: "jane@example.com", Phone: "+15550100"},
			model.CartSnapshot{Lines: lines})
		if err != nil {
			t.Fatal(err)
		}
		return o
	}
	salmon := model.CartLine{ID: "l1", ProductID: "P1", Name: "Salmon", Quantity: 5, LinePrice: decimal.RequireFromString("50.00")}
	trout := model.CartLine{ID: "l2", ProductID: "P2", Name: "Trout", Quantity: 1, LinePrice: decimal.RequireFromString("7.50")}

	t.Run("should save and find an order with its lines", func(t *testing.T) {
		cleanup(t)
		o := newOrder(t, 42, salmon, trout)

		if err := repo.Save(ctx, o); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		found, err := repo.FindByID(ctx, o.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}

		if found.Phone != "+15550100" || found.Name != "Jane Doe" {
			t.Errorf("unexpected customer fields: %+v", found)
		}
		if !found.Total.Equal(decimal.RequireFromString("57.50")) {
			t.Errorf("expected total 57.50, got %s", found.Total)
		}
		if len(found.Lines) != 2 || found.Lines[0].ProductID != "P1" || found.Lines[1].Quantity != 1 {
			t.Errorf("unexpected lines: %+v", found.Lines)
		}
	})

	t.Run("should store the phone sealed", func(t *testing.T) {
		cleanup(t)
		o := newOrder(t, 42, salmon)
		_ = repo.Save(ctx, o)

		var stored string
		if err := testPool.QueryRow(ctx, `SELECT phone_sealed FROM orders WHERE id=$1`, o.ID).Scan(&stored); err != nil {
			t.Fatal(err)
		}
		if stored == "+15550100" || stored == "" {
			t.Errorf("phone stored in clear: %q", stored)
		}
	})

	t.Run("should update status on a second save", func(t *testing.T) {
		cleanup(t)
		o := newOrder(t, 42, salmon)
		_ = repo.Save(ctx, o)
		o.MarkContacted(time.Now())

		if err := repo.Save(ctx, o); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}

		found, _ := repo.FindByID(ctx, o.ID)
		if found.Status != model.OrderStatusContacted || found.ContactedAt == nil || len(found.Lines) != 1 {
			t.Errorf("unexpected order after update: %+v", found)
		}
	})

	t.Run("should list and count by status oldest first", func(t *testing.T) {
		cleanup(t)
		first := newOrder(t, 1, salmon)
		first.CreatedAt = time.Now().Add(-2 * time.Hour)
		second := newOrder(t, 2, trout)
		second.CreatedAt = time.Now().Add(-time.Hour)
		done := newOrder(t, 3)
		done.MarkContacted(time.Now())
		for _, o := range []*model.Order{second, first, done} {
			if err := repo.Save(ctx, o); err != nil {
				t.Fatal(err)
			}
		}

		list, err := repo.ListByStatus(ctx, model.OrderStatusPendingContact, 10)
		if err != nil {
			t.Fatal(err)
		}
		n, err := repo.CountByStatus(ctx, model.OrderStatusPendingContact)
		if err != nil {
			t.Fatal(err)
		}

		if n != 2 || len(list) != 2 || list[0].ID != first.ID || list[1].Lines[0].ProductID != "P2" {
			t.Errorf("unexpected listing: n=%d %+v", n, list)
		}
	})

	t.Run("should report a missing order", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
