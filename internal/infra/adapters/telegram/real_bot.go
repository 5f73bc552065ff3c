package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/logging"
	"telegram-fish-shop/internal/infra/metrics"
	red "telegram-fish-shop/internal/infra/redis"
	"telegram-fish-shop/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the part of *tgbotapi.BotAPI the adapter calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EventHandler consumes converted chat events.
type EventHandler interface {
	Handle(ctx context.Context, ev model.Event) error
}

// Dispatcher runs a task on the worker owning key.
type Dispatcher interface {
	Submit(ctx context.Context, key int64, task worker.Task) error
}

// RateLimiter is a shared per-key event counter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter polls Telegram, hands events to the conversation
// engine through the worker pool and renders its screens.
type RealTelegramBotAdapter struct {
	api      botAPI
	cfg      *config.BotConfig
	handler  EventHandler
	pool     Dispatcher
	limiter  RateLimiter
	throttle *rate.Limiter
	log      *zerolog.Logger

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	r := newAdapter(api, cfg, logger)
	r.log.Info().Str("bot", api.Self.UserName).Msg("authorized")
	return r, nil
}

func newAdapter(api botAPI, cfg *config.BotConfig, logger *zerolog.Logger) *RealTelegramBotAdapter {
	rps := cfg.SendRPS
	if rps <= 0 {
		rps = 25
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		api:      api,
		cfg:      cfg,
		throttle: rate.NewLimiter(rate.Limit(rps), int(rps)),
		log:      &l,
	}
}

// Bind connects the inbound side. The renderer is usable before Bind, which
// lets the engine be built with the adapter as its renderer.
func (r *RealTelegramBotAdapter) Bind(handler EventHandler, pool Dispatcher, limiter RateLimiter) {
	r.handler = handler
	r.pool = pool
	r.limiter = limiter
}

// StartPolling blocks until ctx is done or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.handler == nil || r.pool == nil {
		return errors.New("telegram adapter is not bound to a handler")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer r.api.StopReceivingUpdates()

	r.log.Info().Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("polling stopped")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(ctx, up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// dispatch queues one update. Updates of a chat go to the same worker so
// they are handled in arrival order.
func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, up tgbotapi.Update) {
	in, ok := toEvent(up)
	if in.callbackID != "" {
		// Stop the spinner on the tapped button right away.
		if _, err := r.api.Request(tgbotapi.NewCallback(in.callbackID, "")); err != nil {
			r.log.Debug().Err(err).Msg("answer callback failed")
		}
	}
	if !ok {
		return
	}
	ev := in.event
	if !r.allow(ctx, ev) {
		return
	}

	traceCtx := logging.WithTraceID(ctx, "")
	err := r.pool.Submit(ctx, ev.ChatID, func(wctx context.Context) error {
		wctx = logging.WithTraceID(wctx, logging.TraceID(traceCtx))
		return r.handler.Handle(wctx, ev)
	})
	if err != nil {
		r.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Str("event", string(ev.Kind)).Msg("event dropped")
	}
}

// allow fails open when the limiter backend is down.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, ev model.Event) bool {
	if r.limiter == nil || r.cfg.RateLimitPerMinute <= 0 {
		return true
	}
	ok, err := r.limiter.Allow(ctx, red.ChatEventKey(ev.ChatID, string(ev.Kind)), r.cfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
		r.log.Debug().Int64("chat_id", ev.ChatID).Str("event", string(ev.Kind)).Msg("rate limited")
	}
	return ok
}
