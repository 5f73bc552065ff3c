//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain"
)

// --- Session Model Tests ---

func TestNewSession(t *testing.T) {
	s := NewSession(42)
	if s.ChatID != 42 {
		t.Errorf("expected chat id 42, got %d", s.ChatID)
	}
	if s.State != StateBrowsing {
		t.Errorf("expected default state %q, got %q", StateBrowsing, s.State)
	}
	if s.PendingSelection != nil {
		t.Error("expected no pending selection on a new session")
	}
	if s.CartLines == nil {
		t.Error("expected an initialised cart line map")
	}
}

func TestSession_Clone(t *testing.T) {
	orig := NewSession(7)
	orig.PendingSelection = &Selection{ProductID: "p1"}
	orig.CartLines["p1"] = CartLineRef{LineID: "l1", Quantity: 5}

	cp := orig.Clone()
	cp.PendingSelection.ProductID = "p2"
	cp.CartLines["p3"] = CartLineRef{LineID: "l3", Quantity: 1}

	if orig.PendingSelection.ProductID != "p1" {
		t.Error("clone shares the pending selection with the original")
	}
	if _, ok := orig.CartLines["p3"]; ok {
		t.Error("clone shares the cart line map with the original")
	}
}

func TestSession_Reset(t *testing.T) {
	s := NewSession(9)
	s.State = StatePhoneEntry
	s.Registration = Registration{Name: "Jane", Email: "jane@example.com"}
	s.PendingSelection = &Selection{ProductID: "p1"}
	s.CleanupMessageID = 77

	r := s.Reset()
	if r.State != StateBrowsing {
		t.Errorf("expected %q after reset, got %q", StateBrowsing, r.State)
	}
	if r.Registration != (Registration{}) {
		t.Errorf("expected empty registration after reset, got %+v", r.Registration)
	}
	if r.PendingSelection != nil {
		t.Error("expected pending selection to be dropped")
	}
	if r.CleanupMessageID != 77 {
		t.Errorf("expected cleanup message id to survive reset, got %d", r.CleanupMessageID)
	}
}

// --- Cart Model Tests ---

func TestCartSnapshot_Total(t *testing.T) {
	t.Run("should sum line prices", func(t *testing.T) {
		snap := CartSnapshot{Lines: []CartLine{
			{ID: "l1", ProductID: "p1", Quantity: 1, LinePrice: decimal.RequireFromString("12.50")},
			{ID: "l2", ProductID: "p2", Quantity: 5, LinePrice: decimal.RequireFromString("30.25")},
		}}
		want := decimal.RequireFromString("42.75")
		if !snap.Total().Equal(want) {
			t.Errorf("expected total %s, got %s", want, snap.Total())
		}
	})

	t.Run("should recompute after lines change", func(t *testing.T) {
		snap := CartSnapshot{Lines: []CartLine{{ID: "l1", LinePrice: decimal.NewFromInt(10)}}}
		_ = snap.Total()
		snap.Lines = append(snap.Lines, CartLine{ID: "l2", LinePrice: decimal.NewFromInt(5)})
		if !snap.Total().Equal(decimal.NewFromInt(15)) {
			t.Errorf("expected 15, got %s", snap.Total())
		}
	})

	t.Run("should be zero for an empty cart", func(t *testing.T) {
		if !(CartSnapshot{}).Total().IsZero() {
			t.Error("expected zero total")
		}
	})
}

func TestSession_TrackCart(t *testing.T) {
	s := NewSession(1)
	s.CartLines["gone"] = CartLineRef{LineID: "old"}
	s.TrackCart(CartSnapshot{Lines: []CartLine{{ID: "l1", ProductID: "p1", Quantity: 5}}})

	if _, ok := s.CartLines["gone"]; ok {
		t.Error("expected stale lines to be dropped")
	}
	if got := s.CartLines["p1"]; got.LineID != "l1" || got.Quantity != 5 {
		t.Errorf("unexpected tracked line: %+v", got)
	}
}

// --- Catalog Tests ---

func TestCatalog(t *testing.T) {
	c := NewCatalog([]Product{{ID: "p1", Name: "Salmon"}, {ID: "p2", Name: "Trout"}})

	p, err := c.Get("p2")
	if err != nil {
		t.Fatalf("expected product, got error: %v", err)
	}
	if p.Name != "Trout" {
		t.Errorf("expected Trout, got %s", p.Name)
	}
	if _, err := c.Get("nope"); !errors.Is(err, domain.ErrUnknownProduct) {
		t.Errorf("expected ErrUnknownProduct, got %v", err)
	}
	if names := c.Products(); names[0].ID != "p1" || names[1].ID != "p2" {
		t.Errorf("expected backend order to be preserved, got %+v", names)
	}
}

// --- Order Tests ---

func TestNewOrder(t *testing.T) {
	cart := CartSnapshot{Lines: []CartLine{{ID: "l1", ProductID: "p1", Name: "Salmon", Quantity: 1, LinePrice: decimal.NewFromInt(20)}}}

	t.Run("should freeze cart lines and total", func(t *testing.T) {
		o, err := NewOrder(42, "cust-1", CustomerFields{Name: "Jane Doe", Email: "jane@example.com", Phone: "+15550100"}, cart)
		if err != nil {
			t.Fatalf("NewOrder failed: %v", err)
		}
		if o.ID == "" {
			t.Error("expected a generated order id")
		}
		if o.Status != OrderStatusPendingContact {
			t.Errorf("expected pending_contact, got %s", o.Status)
		}
		if !o.Total.Equal(decimal.NewFromInt(20)) || len(o.Lines) != 1 {
			t.Errorf("unexpected order contents: %+v", o)
		}
	})

	t.Run("should reject missing customer", func(t *testing.T) {
		if _, err := NewOrder(42, "", CustomerFields{}, cart); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("mark contacted is idempotent", func(t *testing.T) {
		o, _ := NewOrder(42, "cust-1", CustomerFields{}, cart)
		first := time.Now()
		o.MarkContacted(first)
		o.MarkContacted(first.Add(time.Hour))
		if o.ContactedAt == nil || !o.ContactedAt.Equal(first) {
			t.Errorf("expected contacted at %v, got %v", first, o.ContactedAt)
		}
	})
}

func TestSender_FullName(t *testing.T) {
	if got := (Sender{FirstName: "Jane", LastName: "Doe"}).FullName(); got != "Jane Doe" {
		t.Errorf("got %q", got)
	}
	if got := (Sender{FirstName: "Jane"}).FullName(); got != "Jane" {
		t.Errorf("got %q", got)
	}
}
