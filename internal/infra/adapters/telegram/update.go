package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-fish-shop/internal/domain/model"
)

// inbound is a converted update plus the callback query to acknowledge.
type inbound struct {
	event      model.Event
	callbackID string
}

// toEvent strips an update down to a model.Event. ok is false for updates
// the shop does not react to: edits, channel posts, stickers, contacts of
// somebody else.
func toEvent(up tgbotapi.Update) (in inbound, ok bool) {
	if q := up.CallbackQuery; q != nil {
		in.callbackID = q.ID
		if q.Message == nil || q.Message.Chat == nil || strings.TrimSpace(q.Data) == "" {
			return in, false
		}
		in.event = model.ButtonEvent(q.Message.Chat.ID, q.Message.MessageID, strings.TrimSpace(q.Data))
		in.event.From = sender(q.From)
		return in, true
	}

	m := up.Message
	if m == nil || m.Chat == nil {
		return in, false
	}
	switch {
	case m.IsCommand():
		in.event = model.CommandEvent(m.Chat.ID, m.MessageID, m.Command())
	case m.Contact != nil:
		// Only the sender's own number registers; anyone else's card is plain text.
		if m.From != nil && m.Contact.UserID != 0 && m.Contact.UserID != m.From.ID {
			in.event = model.TextEvent(m.Chat.ID, m.MessageID, m.Contact.PhoneNumber)
			break
		}
		in.event = model.ContactEvent(m.Chat.ID, m.MessageID, m.Contact.PhoneNumber)
	case m.Text != "":
		in.event = model.TextEvent(m.Chat.ID, m.MessageID, m.Text)
	default:
		return in, false
	}
	in.event.From = sender(m.From)
	return in, true
}

func sender(u *tgbotapi.User) model.Sender {
	if u == nil {
		return model.Sender{}
	}
	return model.Sender{FirstName: u.FirstName, LastName: u.LastName, Username: u.UserName}
}
