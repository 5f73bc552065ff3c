//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"telegram-fish-shop/internal/config"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"}, false)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithChatID(ctx, 42)
	ctx = WithEvent(ctx, "button")
	With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != "trace-1" {
		t.Errorf("expected trace_id, got %v", line["trace_id"])
	}
	if line["chat_id"] != float64(42) {
		t.Errorf("expected chat_id 42, got %v", line["chat_id"])
	}
	if line["event"] != "button" {
		t.Errorf("expected event, got %v", line["event"])
	}
}

func TestWithTraceID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithTraceID(context.Background(), "")
	if TraceID(ctx) == "" {
		t.Fatal("expected a generated trace id")
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		dev  bool
		want string
	}{
		{"+15550100", false, "+155...00"},
		{"short", false, "***"},
		{"+15550100", true, "+15550100"},
	}
	for _, tt := range tests {
		if got := Redact(tt.in, tt.dev); got != tt.want {
			t.Errorf("Redact(%q, %v) = %q, want %q", tt.in, tt.dev, got, tt.want)
		}
	}
}
