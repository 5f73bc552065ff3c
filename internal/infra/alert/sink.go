package alert

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"telegram-fish-shop/internal/domain/ports/adapter"
)

type fanout []adapter.AlertSink

// Fanout delivers every alert to each non-nil sink in order.
func Fanout(sinks ...adapter.AlertSink) adapter.AlertSink {
	out := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Notify(ctx context.Context, a adapter.Alert) {
	for _, s := range f {
		s.Notify(ctx, a)
	}
}

// Nop drops every alert.
type Nop struct{}

func (Nop) Notify(context.Context, adapter.Alert) {}

// Format renders an alert as plain text for chat delivery.
func Format(a adapter.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(a.Severity)), a.Message)
	if a.ChatID != 0 {
		fmt.Fprintf(&b, "\nchat: %d", a.ChatID)
	}
	if a.State != "" {
		fmt.Fprintf(&b, "\nstate: %s", a.State)
	}
	if a.Intent != "" {
		fmt.Fprintf(&b, "\nintent: %s", a.Intent)
	}
	if a.Err != nil {
		fmt.Fprintf(&b, "\nerror: %v", a.Err)
	}
	if len(a.Tags) > 0 {
		keys := make([]string, 0, len(a.Tags))
		for k := range a.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %s", k, a.Tags[k])
		}
	}
	return b.String()
}
