package model

import "time"

// State is a step of the shopping conversation.
type State string

const (
	StateBrowsing         State = "browsing"
	StateProductDetail    State = "product_detail"
	StateCartReview       State = "cart_review"
	StateRegistrationMenu State = "registration_menu"
	StateNameConfirm      State = "name_confirm"
	StateNameEntry        State = "name_entry"
	StateEmailEntry       State = "email_entry"
	StatePhoneEntry       State = "phone_entry"
	StateOrderPlaced      State = "order_placed"
)

// States lists every state in flow order.
var States = []State{
	StateBrowsing,
	StateProductDetail,
	StateCartReview,
	StateRegistrationMenu,
	StateNameConfirm,
	StateNameEntry,
	StateEmailEntry,
	StatePhoneEntry,
	StateOrderPlaced,
}

// Selection is a product picked on the detail screen but not yet in the cart.
type Selection struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
}

// CartLineRef remembers which backend line holds a product and how much of it.
type CartLineRef struct {
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}

// Registration is the checkout draft, filled one field at a time.
type Registration struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (r Registration) Fields() CustomerFields {
	return CustomerFields{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// Session is the per-chat conversation record.
// The customer binding is stored separately and survives resets.
type Session struct {
	ChatID           int64                  `json:"chat_id"`
	State            State                  `json:"state"`
	PendingSelection *Selection             `json:"pending_selection,omitempty"`
	CartLines        map[string]CartLineRef `json:"cart_lines,omitempty"`
	Registration     Registration           `json:"registration"`
	CleanupMessageID int                    `json:"cleanup_message_id,omitempty"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewSession is the default session every chat starts from.
func NewSession(chatID int64) Session {
	return Session{
		ChatID:    chatID,
		State:     StateBrowsing,
		CartLines: map[string]CartLineRef{},
	}
}

// Clone returns a deep copy so a handler can work on it without touching the stored value.
func (s Session) Clone() Session {
	out := s
	if s.PendingSelection != nil {
		sel := *s.PendingSelection
		out.PendingSelection = &sel
	}
	out.CartLines = make(map[string]CartLineRef, len(s.CartLines))
	for k, v := range s.CartLines {
		out.CartLines[k] = v
	}
	return out
}

// Reset drops everything except the chat id and the message to clean up next.
func (s Session) Reset() Session {
	fresh := NewSession(s.ChatID)
	fresh.CleanupMessageID = s.CleanupMessageID
	return fresh
}

// TrackCart replaces the product to line mapping with the lines of snap.
func (s *Session) TrackCart(snap CartSnapshot) {
	s.CartLines = make(map[string]CartLineRef, len(snap.Lines))
	for _, l := range snap.Lines {
		s.CartLines[l.ProductID] = CartLineRef{LineID: l.ID, Quantity: l.Quantity}
	}
}
