// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
}

// RenderKind selects how a screen reaches the chat.
type RenderKind int

const (
	RenderSendText RenderKind = iota
	RenderSendImage
	RenderReplace // delete TargetID, then send Inner
	RenderEdit    // edit TargetID in place
)

func (k RenderKind) String() string {
	switch k {
	case RenderSendText:
		return "send_text"
	case RenderSendImage:
		return "send_image"
	case RenderReplace:
		return "replace"
	case RenderEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// RenderAction is one outbound screen.
type RenderAction struct {
	Kind     RenderKind
	Text     string // message text or photo caption
	Image    []byte
	Rows     [][]InlineButton
	TargetID int
	Inner    *RenderAction
	// ContactRequest, when set, attaches a one-time reply keyboard with a
	// share-contact button labelled with it. Text sends only.
	ContactRequest string
}

func SendText(text string, rows [][]InlineButton) RenderAction {
	return RenderAction{Kind: RenderSendText, Text: text, Rows: rows}
}

func SendImage(image []byte, caption string, rows [][]InlineButton) RenderAction {
	return RenderAction{Kind: RenderSendImage, Image: image, Text: caption, Rows: rows}
}

func Replace(messageID int, inner RenderAction) RenderAction {
	return RenderAction{Kind: RenderReplace, TargetID: messageID, Inner: &inner}
}

func Edit(messageID int, text string, rows [][]InlineButton) RenderAction {
	return RenderAction{Kind: RenderEdit, TargetID: messageID, Text: text, Rows: rows}
}

// Renderer delivers a RenderAction and reports the id of the message left on screen.
type Renderer interface {
	Render(ctx context.Context, chatID int64, action RenderAction) (int, error)
}

type TelegramBotAdapter interface {
	Renderer
	SendMessage(ctx context.Context, chatID int64, text string) error
}
