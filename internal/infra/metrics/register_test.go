//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNorm(t *testing.T) {
	cases := map[string]string{
		"":              "unknown",
		"  Button ":     "button",
		"cart-review":   "cart_review",
		"order.placed":  "order_placed",
		"рыба":          "other",
		"add_cart_line": "add_cart_line",
		"qty:5:P1":      "qty:5:p1",
	}
	for in, want := range cases {
		if got := norm(in); got != want {
			t.Errorf("norm(%q) = %q, want %q", in, got, want)
		}
	}

	long := norm("abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz")
	if len(long) != maxLabelLen {
		t.Errorf("long label not bounded: %d", len(long))
	}
}

func TestMustRegisterWith(t *testing.T) {
	t.Run("should register the shop collectors once", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		MustRegisterWith(reg)
		MustRegisterWith(reg)
		IncCacheHit("session")

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		var found bool
		for _, f := range families {
			if f.GetName() == "cache_requests_total" {
				found = true
			}
		}
		if !found {
			t.Fatal("cache_requests_total not registered")
		}
	})
}
