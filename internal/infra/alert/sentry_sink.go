package alert

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/logging"
	"telegram-fish-shop/internal/infra/metrics"
)

// SentrySink reports alerts as Sentry events. The SDK queues events on its
// own transport, so Notify does not wait on the network.
type SentrySink struct {
	hub *sentry.Hub
}

func NewSentrySink(dsn, environment, release string) (*SentrySink, error) {
	return NewSentrySinkWithOptions(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
}

func NewSentrySinkWithOptions(opts sentry.ClientOptions) (*SentrySink, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &SentrySink{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (s *SentrySink) Notify(ctx context.Context, a adapter.Alert) {
	hub := s.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range a.Tags {
			scope.SetTag(k, v)
		}
		if a.State != "" {
			scope.SetTag("state", a.State)
		}
		if a.Intent != "" {
			scope.SetTag("intent", a.Intent)
		}
		if a.Err != nil {
			scope.SetTag("error_class", domain.ErrorClass(a.Err))
		}
		if id := logging.TraceID(ctx); id != "" {
			scope.SetTag("trace_id", id)
		}
		if a.ChatID != 0 {
			scope.SetExtra("chat_id", a.ChatID)
		}
		scope.SetExtra("message", a.Message)
		scope.SetLevel(level(a.Severity))
	})

	if a.Err != nil {
		hub.CaptureException(a.Err)
	} else {
		hub.CaptureMessage(a.Message)
	}
	metrics.IncAlert("sentry", "sent")
}

// Flush waits up to timeout for queued events.
func (s *SentrySink) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}

func level(sev adapter.AlertSeverity) sentry.Level {
	switch sev {
	case adapter.AlertCritical:
		return sentry.LevelFatal
	case adapter.AlertError:
		return sentry.LevelError
	default:
		return sentry.LevelInfo
	}
}
