package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for local/dev runs.
// It logs screens instead of sending them.
type NoopBotAdapter struct {
	lastID atomic.Int64
	log    *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) Render(ctx context.Context, chatID int64, a adapter.RenderAction) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if a.Kind == adapter.RenderReplace && a.Inner != nil {
		b.log.Debug().Int64("chat_id", chatID).Int("delete", a.TargetID).Msg("replace")
		return b.Render(ctx, chatID, *a.Inner)
	}
	if a.Kind == adapter.RenderEdit && a.TargetID != 0 {
		b.log.Info().Int64("chat_id", chatID).Int("message_id", a.TargetID).Str("text", a.Text).Interface("buttons", a.Rows).Msg("edit")
		return a.TargetID, nil
	}
	id := int(b.lastID.Add(1))
	b.log.Info().
		Int64("chat_id", chatID).
		Int("message_id", id).
		Str("kind", a.Kind.String()).
		Str("text", a.Text).
		Int("image_bytes", len(a.Image)).
		Interface("buttons", a.Rows).
		Msg("send")
	return id, nil
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("message")
	return nil
}
