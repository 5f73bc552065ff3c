package sched

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/usecase"
)

// MessageSender delivers plain text to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

const digestSize = 20

// DigestKeys lists the locale keys the digest uses.
var DigestKeys = []string{"digest_header", "digest_line"}

// OrderDigestWorker periodically posts the orders still waiting for a
// manager's call to the operators chat.
type OrderDigestWorker struct {
	interval    time.Duration
	orders      usecase.OrderUseCase
	sender      MessageSender
	tr          usecase.Translator
	adminChatID int64
	currency    string
	now         func() time.Time
	log         *zerolog.Logger
}

func NewOrderDigestWorker(interval time.Duration, orders usecase.OrderUseCase, sender MessageSender, tr usecase.Translator, adminChatID int64, currency string, logger *zerolog.Logger) *OrderDigestWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "OrderDigestWorker").Logger()
	return &OrderDigestWorker{
		interval:    interval,
		orders:      orders,
		sender:      sender,
		tr:          tr,
		adminChatID: adminChatID,
		currency:    currency,
		now:         time.Now,
		log:         &l,
	}
}

func (w *OrderDigestWorker) Run(ctx context.Context) error {
	if w.adminChatID == 0 {
		w.log.Info().Msg("no admin chat configured; order digest disabled")
		<-ctx.Done()
		return ctx.Err()
	}
	w.log.Info().Dur("interval", w.interval).Msg("Starting order digest worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping order digest worker")
			return ctx.Err()
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := w.RunOnce(runCtx)
			cancel()
			if err != nil {
				w.log.Error().Err(err).Msg("order digest failed")
				continue
			}
			if n > 0 {
				w.log.Info().Int("pending", n).Msg("order digest sent")
			}
		}
	}
}

// RunOnce sends one digest and reports how many orders are pending.
// Nothing is sent when no order waits.
func (w *OrderDigestWorker) RunOnce(ctx context.Context) (int, error) {
	n, list, err := w.orders.Pending(ctx, digestSize)
	if err != nil || n == 0 {
		return n, err
	}

	var b strings.Builder
	b.WriteString(w.tr.T("digest_header", n))
	now := w.now()
	for _, o := range list {
		b.WriteString("\n")
		b.WriteString(w.tr.T("digest_line",
			o.Name,
			o.Phone,
			o.Email,
			w.money(o.Total.StringFixed(2)),
			humanize.RelTime(o.CreatedAt, now, "ago", "from now"),
		))
	}
	if err := w.sender.SendMessage(ctx, w.adminChatID, b.String()); err != nil {
		return n, err
	}
	return n, nil
}

func (w *OrderDigestWorker) money(amount string) string {
	if w.currency == "" || w.currency == "USD" {
		return "$" + amount
	}
	return amount + " " + w.currency
}
