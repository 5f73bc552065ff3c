package usecase

import (
	"strconv"
	"strings"

	"telegram-fish-shop/internal/domain/model"
)

// Button tokens carried in callback data.
const (
	TokenCart       = "cart"
	TokenMenu       = "menu"
	TokenCheckout   = "checkout"
	TokenEditData   = "edit_data"
	TokenPlaceOrder = "place_order"
	TokenNameOK     = "name_ok"
	TokenNameChange = "name_change"

	tokenProduct = "product"
	tokenQty     = "qty"
	tokenRemove  = "remove"
	tokenAny     = "*"
)

func ProductToken(productID string) string { return tokenProduct + ":" + productID }

func QtyToken(qty int, productID string) string {
	return tokenQty + ":" + strconv.Itoa(qty) + ":" + productID
}

func RemoveToken(productID string) string { return tokenRemove + ":" + productID }

// Intent names the work an event asks for.
type Intent string

const (
	IntentStart         Intent = "start"
	IntentShowCatalog   Intent = "show_catalog"
	IntentShowProduct   Intent = "show_product"
	IntentShowCart      Intent = "show_cart"
	IntentPurchase      Intent = "purchase"
	IntentRemove        Intent = "remove"
	IntentCheckout      Intent = "checkout"
	IntentEditData      Intent = "edit_data"
	IntentPlaceOrder    Intent = "place_order"
	IntentAcceptName    Intent = "accept_name"
	IntentRejectName    Intent = "reject_name"
	IntentSubmitName    Intent = "submit_name"
	IntentSubmitEmail   Intent = "submit_email"
	IntentRejectEmail   Intent = "reject_email"
	IntentRemindContact Intent = "remind_contact"
	IntentSubmitContact Intent = "submit_contact"
)

// Decision is what Decide picked for an event. Next is the state committed
// when the intent succeeds.
type Decision struct {
	Intent    Intent
	Next      model.State
	ProductID string
	Quantity  int
}

type route struct {
	kind   model.EventKind
	token  string // button token name, tokenAny for every button
	intent Intent
	next   model.State
}

var routes = map[model.State][]route{
	model.StateBrowsing: {
		{model.EventButton, tokenProduct, IntentShowProduct, model.StateProductDetail},
		{model.EventButton, TokenCart, IntentShowCart, model.StateCartReview},
	},
	model.StateProductDetail: {
		{model.EventButton, tokenQty, IntentPurchase, model.StateCartReview},
		{model.EventButton, TokenMenu, IntentShowCatalog, model.StateBrowsing},
		{model.EventButton, TokenCart, IntentShowCart, model.StateCartReview},
	},
	model.StateCartReview: {
		{model.EventButton, tokenRemove, IntentRemove, model.StateCartReview},
		{model.EventButton, TokenMenu, IntentShowCatalog, model.StateBrowsing},
		{model.EventButton, TokenCheckout, IntentCheckout, model.StateNameConfirm},
	},
	model.StateRegistrationMenu: {
		{model.EventButton, TokenEditData, IntentEditData, model.StateNameConfirm},
		{model.EventButton, TokenPlaceOrder, IntentPlaceOrder, model.StateOrderPlaced},
	},
	model.StateNameConfirm: {
		{model.EventButton, TokenNameOK, IntentAcceptName, model.StateEmailEntry},
		{model.EventButton, TokenNameChange, IntentRejectName, model.StateNameEntry},
	},
	model.StateNameEntry: {
		{model.EventText, "", IntentSubmitName, model.StateEmailEntry},
	},
	model.StateEmailEntry: {
		{model.EventText, "", IntentSubmitEmail, model.StatePhoneEntry},
	},
	model.StatePhoneEntry: {
		{model.EventText, "", IntentRemindContact, model.StatePhoneEntry},
		{model.EventContact, "", IntentSubmitContact, model.StateOrderPlaced},
	},
	model.StateOrderPlaced: {
		{model.EventButton, tokenAny, IntentShowCatalog, model.StateBrowsing},
		{model.EventText, "", IntentShowCatalog, model.StateBrowsing},
	},
}

// Decide maps an event to an intent for the session's state. It performs
// no I/O. ok is false when the state has no route for the event or the
// payload does not fit the session.
func Decide(s model.Session, ev model.Event) (d Decision, ok bool) {
	if ev.Kind == model.EventCommand {
		if strings.EqualFold(ev.Command, "start") {
			return Decision{Intent: IntentStart, Next: model.StateBrowsing}, true
		}
		return Decision{}, false
	}

	name, rest, _ := strings.Cut(ev.Token, ":")
	for _, r := range routes[s.State] {
		if r.kind != ev.Kind {
			continue
		}
		if r.kind == model.EventButton && r.token != tokenAny && r.token != name {
			continue
		}
		d = Decision{Intent: r.intent, Next: r.next}
		return d, bind(&d, s, ev, rest)
	}
	return Decision{}, false
}

// bind checks the payload against the session and copies its arguments into d.
func bind(d *Decision, s model.Session, ev model.Event, args string) bool {
	switch d.Intent {
	case IntentShowProduct:
		d.ProductID = args
		return args != ""
	case IntentPurchase:
		qty, productID, ok := strings.Cut(args, ":")
		n, err := strconv.Atoi(qty)
		if !ok || err != nil || n <= 0 {
			return false
		}
		if s.PendingSelection == nil || s.PendingSelection.ProductID != productID {
			return false
		}
		d.ProductID, d.Quantity = productID, n
		return true
	case IntentRemove:
		ref, ok := s.CartLines[args]
		if !ok {
			return false
		}
		d.ProductID, d.Quantity = args, ref.Quantity
		return true
	case IntentCheckout:
		return len(s.CartLines) > 0
	case IntentSubmitName:
		return strings.TrimSpace(ev.Text) != ""
	case IntentSubmitEmail:
		if _, err := ValidateEmail(ev.Text); err != nil {
			d.Intent, d.Next = IntentRejectEmail, model.StateEmailEntry
		}
		return true
	case IntentSubmitContact:
		return strings.TrimSpace(ev.Phone) != ""
	}
	return true
}
