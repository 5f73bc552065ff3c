package alert

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/metrics"
)

// MessageSender is the slice of the bot adapter the sink needs.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

const sendTimeout = 10 * time.Second

// TelegramSink posts alerts to the operators' chat from a background worker.
// Notify never blocks: a full queue drops the alert.
type TelegramSink struct {
	sender      MessageSender
	adminChatID int64
	queue       chan adapter.Alert
	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	dropped     atomic.Int64
	log         *zerolog.Logger
}

func NewTelegramSink(sender MessageSender, adminChatID int64, queueSize int, logger *zerolog.Logger) *TelegramSink {
	if queueSize <= 0 {
		queueSize = 1
	}
	l := logger.With().Str("component", "TelegramAlertSink").Logger()
	return &TelegramSink{
		sender:      sender,
		adminChatID: adminChatID,
		queue:       make(chan adapter.Alert, queueSize),
		stop:        make(chan struct{}),
		log:         &l,
	}
}

func (s *TelegramSink) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop delivers what is already queued and waits for the worker.
func (s *TelegramSink) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *TelegramSink) Notify(_ context.Context, a adapter.Alert) {
	select {
	case <-s.stop:
		s.drop(a)
		return
	default:
	}
	select {
	case s.queue <- a:
	default:
		s.drop(a)
	}
}

// Dropped reports how many alerts never reached the queue.
func (s *TelegramSink) Dropped() int64 { return s.dropped.Load() }

func (s *TelegramSink) drop(a adapter.Alert) {
	s.dropped.Add(1)
	metrics.IncAlert("telegram", "dropped")
	s.log.Warn().Str("severity", string(a.Severity)).Str("message", a.Message).Msg("alert dropped")
}

func (s *TelegramSink) run() {
	defer s.wg.Done()
	for {
		select {
		case a := <-s.queue:
			s.deliver(a)
		case <-s.stop:
			for {
				select {
				case a := <-s.queue:
					s.deliver(a)
				default:
					return
				}
			}
		}
	}
}

func (s *TelegramSink) deliver(a adapter.Alert) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncAlert("telegram", "failed")
			s.log.Error().Interface("panic", r).Msg("alert delivery panicked")
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := s.sender.SendMessage(ctx, s.adminChatID, Format(a)); err != nil {
		metrics.IncAlert("telegram", "failed")
		s.log.Error().Err(err).Msg("alert delivery failed")
		return
	}
	metrics.IncAlert("telegram", "sent")
}
