package model

// EventKind is the shape of an inbound chat event.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventButton  EventKind = "button"
	EventText    EventKind = "text"
	EventContact EventKind = "contact"
)

// Event is one inbound chat update, already stripped of platform details.
type Event struct {
	Kind      EventKind
	ChatID    int64
	MessageID int
	// Command is the command name without the slash, e.g. "start".
	Command string
	// Token is the callback data of a tapped button.
	Token string
	Text  string
	Phone string
	From  Sender
}

func CommandEvent(chatID int64, messageID int, name string) Event {
	return Event{Kind: EventCommand, ChatID: chatID, MessageID: messageID, Command: name}
}

func ButtonEvent(chatID int64, messageID int, token string) Event {
	return Event{Kind: EventButton, ChatID: chatID, MessageID: messageID, Token: token}
}

func TextEvent(chatID int64, messageID int, text string) Event {
	return Event{Kind: EventText, ChatID: chatID, MessageID: messageID, Text: text}
}

func ContactEvent(chatID int64, messageID int, phone string) Event {
	return Event{Kind: EventContact, ChatID: chatID, MessageID: messageID, Phone: phone}
}
