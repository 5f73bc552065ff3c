//go:build !integration

package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockSender struct {
	mu              sync.Mutex
	sent            []string
	chats           []int64
	SendMessageFunc func(ctx context.Context, chatID int64, text string) error
}

func (m *mockSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, chatID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	m.chats = append(m.chats, chatID)
	return nil
}

type recordingSink struct {
	got []adapter.Alert
}

func (r *recordingSink) Notify(_ context.Context, a adapter.Alert) { r.got = append(r.got, a) }

func TestFanout(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	sink := Fanout(a, nil, b)

	sink.Notify(context.Background(), adapter.Alert{Message: "x"})

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
}

func TestFormat(t *testing.T) {
	text := Format(adapter.Alert{
		Severity: adapter.AlertCritical,
		Message:  "cart/inventory mismatch",
		ChatID:   42,
		State:    "product_detail",
		Intent:   "purchase",
		Err:      errors.New("boom"),
		Tags:     map[string]string{"product_id": "P1", "quantity": "5"},
	})

	require.Equal(t, "[CRITICAL] cart/inventory mismatch\nchat: 42\nstate: product_detail\nintent: purchase\nerror: boom\nproduct_id: P1\nquantity: 5", text)
}

func TestTelegramSink(t *testing.T) {
	ctx := context.Background()

	t.Run("should deliver queued alerts to the admin chat", func(t *testing.T) {
		// Arrange
		sender := &mockSender{}
		sink := NewTelegramSink(sender, 999, 8, newTestLogger())
		sink.Start()

		// Act
		sink.Notify(ctx, adapter.Alert{Severity: adapter.AlertError, Message: "first"})
		sink.Notify(ctx, adapter.Alert{Severity: adapter.AlertError, Message: "second"})
		sink.Stop()

		// Assert
		require.Len(t, sender.sent, 2)
		require.Equal(t, []int64{999, 999}, sender.chats)
		require.Contains(t, sender.sent[0], "first")
	})

	t.Run("should drop alerts when the queue is full", func(t *testing.T) {
		sink := NewTelegramSink(&mockSender{}, 999, 1, newTestLogger())

		sink.Notify(ctx, adapter.Alert{Message: "kept"})
		sink.Notify(ctx, adapter.Alert{Message: "dropped"})

		require.EqualValues(t, 1, sink.Dropped())
	})

	t.Run("should keep running after a failing or panicking send", func(t *testing.T) {
		var calls int
		sender := &mockSender{}
		sender.SendMessageFunc = func(ctx context.Context, chatID int64, text string) error {
			calls++
			switch calls {
			case 1:
				panic("telegram exploded")
			case 2:
				return errors.New("flood wait")
			}
			return nil
		}
		sink := NewTelegramSink(sender, 1, 8, newTestLogger())
		sink.Start()

		for i := 0; i < 3; i++ {
			sink.Notify(ctx, adapter.Alert{Message: "m"})
		}
		sink.Stop()

		require.Equal(t, 3, calls)
		require.Len(t, sender.sent, 1)
	})

	t.Run("should drop alerts after stop without panicking", func(t *testing.T) {
		sink := NewTelegramSink(&mockSender{}, 1, 8, newTestLogger())
		sink.Start()
		sink.Stop()

		require.NotPanics(t, func() { sink.Notify(ctx, adapter.Alert{Message: "late"}) })
		require.EqualValues(t, 1, sink.Dropped())
	})
}

func TestSentrySink(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	sink, err := NewSentrySinkWithOptions(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	t.Run("should capture errors as exceptions with tags", func(t *testing.T) {
		sink.Notify(context.Background(), adapter.Alert{
			Severity: adapter.AlertCritical,
			Message:  "reserve failed",
			State:    "product_detail",
			Intent:   "purchase",
			Err:      &domain.BackendError{Op: "reserve_stock", Status: 400},
			Tags:     map[string]string{"product_id": "P1"},
		})
		sink.Flush(time.Second)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, events, 1)
		ev := events[0]
		require.Equal(t, sentry.LevelFatal, ev.Level)
		require.NotEmpty(t, ev.Exception)
		require.Equal(t, "P1", ev.Tags["product_id"])
		require.Equal(t, "purchase", ev.Tags["intent"])
		require.Equal(t, "backend", ev.Tags["error_class"])
	})

	t.Run("should capture plain alerts as messages", func(t *testing.T) {
		mu.Lock()
		events = nil
		mu.Unlock()

		sink.Notify(context.Background(), adapter.Alert{Severity: adapter.AlertInfo, Message: "bot started"})

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, events, 1)
		require.Equal(t, "bot started", events[0].Message)
		require.Equal(t, sentry.LevelInfo, events[0].Level)
	})
}
