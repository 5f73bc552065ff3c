package adapter

import "context"

type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertError    AlertSeverity = "error"
	AlertCritical AlertSeverity = "critical"
)

// Alert is an operational notice for the shop operators.
type Alert struct {
	Severity AlertSeverity
	Message  string
	ChatID   int64
	State    string
	Intent   string
	Err      error
	Tags     map[string]string
}

// AlertSink delivers alerts out of band. Notify must not block on the
// network, must not panic and has nothing to report back to the caller.
type AlertSink interface {
	Notify(ctx context.Context, alert Alert)
}
