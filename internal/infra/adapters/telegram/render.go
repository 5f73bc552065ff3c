package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/metrics"
)

// Render delivers a screen and returns the id of the message it left in the chat.
func (r *RealTelegramBotAdapter) Render(ctx context.Context, chatID int64, a adapter.RenderAction) (int, error) {
	id, err := r.render(ctx, chatID, a)
	metrics.IncRender(a.Kind.String(), err == nil)
	return id, err
}

func (r *RealTelegramBotAdapter) render(ctx context.Context, chatID int64, a adapter.RenderAction) (int, error) {
	switch a.Kind {
	case adapter.RenderSendText:
		msg := tgbotapi.NewMessage(chatID, a.Text)
		switch {
		case a.ContactRequest != "":
			kb := tgbotapi.NewOneTimeReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(a.ContactRequest)))
			kb.ResizeKeyboard = true
			msg.ReplyMarkup = kb
		case len(a.Rows) > 0:
			msg.ReplyMarkup = inlineKeyboard(a.Rows)
		}
		return r.send(ctx, "send_text", msg)

	case adapter.RenderSendImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "product.jpg", Bytes: a.Image})
		photo.Caption = a.Text
		if len(a.Rows) > 0 {
			photo.ReplyMarkup = inlineKeyboard(a.Rows)
		}
		return r.send(ctx, "send_image", photo)

	case adapter.RenderReplace:
		if a.Inner == nil {
			return 0, &domain.TransportError{Op: "replace", Err: errors.New("nothing to send")}
		}
		r.delete(ctx, chatID, a.TargetID)
		return r.render(ctx, chatID, *a.Inner)

	case adapter.RenderEdit:
		if a.TargetID == 0 {
			return r.render(ctx, chatID, adapter.SendText(a.Text, a.Rows))
		}
		edit := tgbotapi.NewEditMessageText(chatID, a.TargetID, a.Text)
		if len(a.Rows) > 0 {
			kb := inlineKeyboard(a.Rows)
			edit.ReplyMarkup = &kb
		}
		if _, err := r.send(ctx, "edit", edit); err != nil {
			// Photo messages have no text to edit; swap them for a fresh message.
			r.log.Debug().Err(err).Int("message_id", a.TargetID).Msg("edit failed, replacing")
			return r.render(ctx, chatID, adapter.Replace(a.TargetID, adapter.SendText(a.Text, a.Rows)))
		}
		return a.TargetID, nil
	}
	return 0, &domain.TransportError{Op: "render", Err: errors.New("unknown render kind " + a.Kind.String())}
}

// delete is best effort: Telegram refuses to delete messages older than 48 hours.
func (r *RealTelegramBotAdapter) delete(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := r.throttle.Wait(ctx); err != nil {
		return
	}
	if _, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		r.log.Debug().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete failed")
	}
}

func (r *RealTelegramBotAdapter) send(ctx context.Context, op string, c tgbotapi.Chattable) (int, error) {
	if err := r.throttle.Wait(ctx); err != nil {
		return 0, &domain.TransportError{Op: op, Err: err}
	}
	m, err := r.api.Send(c)
	if err != nil {
		return 0, &domain.TransportError{Op: op, Err: err}
	}
	return m.MessageID, nil
}

// SendMessage sends plain text, used for operator alerts and digests.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := r.send(ctx, "send_message", tgbotapi.NewMessage(chatID, text))
	return err
}

func inlineKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			data := btn.Data
			if data == "" {
				data = label
			}
			out = append(out, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		kbRows = append(kbRows, out)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
