package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/adapter"
)

// Telegram limits.
const (
	maxCaptionRunes = 1024
	maxTextRunes    = 4096
)

// ScreenKeys lists every locale key the chat screens use.
var ScreenKeys = []string{
	"welcome", "catalog_prompt", "unit", "price_per_unit", "price_unknown",
	"stock_available", "out_of_stock", "product_card",
	"cart_header", "cart_line", "cart_total", "cart_empty",
	"registered_menu", "name_confirm_full", "name_confirm_first",
	"ask_name", "ask_email", "invalid_email", "ask_phone", "phone_use_button",
	"order_placed", "try_again",
	"btn_back", "btn_back_to_products", "btn_cart", "btn_checkout", "btn_edit_data",
	"btn_name_change", "btn_name_ok", "btn_place_order", "btn_remove",
	"btn_share_phone", "btn_tier",
}

// Translator resolves locale keys.
type Translator interface {
	T(key string, args ...interface{}) string
}

// screens builds the text and keyboards of every chat screen.
type screens struct {
	tr       Translator
	currency string
}

func (s screens) unit() string { return s.tr.T("unit") }

func (s screens) money(d decimal.Decimal) string {
	if s.currency == "" || s.currency == "USD" {
		return "$" + d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + s.currency
}

func (s screens) qty(n int) string { return humanize.Comma(int64(n)) }

func (s screens) catalog(products []model.Product) (string, [][]adapter.InlineButton) {
	buttons := make([]adapter.InlineButton, 0, len(products)+1)
	for _, p := range products {
		buttons = append(buttons, adapter.InlineButton{Text: p.Name, Data: ProductToken(p.ID)})
	}
	buttons = append(buttons, s.cartButton())
	return s.tr.T("catalog_prompt"), columns(buttons, 2)
}

func (s screens) welcome(products []model.Product) (string, [][]adapter.InlineButton) {
	text, rows := s.catalog(products)
	return s.tr.T("welcome") + "\n\n" + text, rows
}

// productCard renders price, stock and the quantity tiers the stock covers.
// price is nil when the price book has no entry for the product's sku.
func (s screens) productCard(p model.Product, price *decimal.Decimal, stock int, tiers []int) (string, [][]adapter.InlineButton) {
	priceLine := s.tr.T("price_unknown")
	if price != nil {
		priceLine = s.tr.T("price_per_unit", s.money(*price), s.unit())
	}
	stockLine := s.tr.T("out_of_stock")
	if stock > 0 {
		stockLine = s.tr.T("stock_available", s.qty(stock), s.unit())
	}

	buttons := make([]adapter.InlineButton, 0, len(tiers)+2)
	for _, n := range tiers {
		buttons = append(buttons, adapter.InlineButton{Text: s.tr.T("btn_tier", s.qty(n), s.unit()), Data: QtyToken(n, p.ID)})
	}
	buttons = append(buttons, adapter.InlineButton{Text: s.tr.T("btn_back"), Data: TokenMenu}, s.cartButton())

	caption := s.tr.T("product_card", p.Name, priceLine, stockLine, p.Description)
	return clip(strings.TrimSpace(caption), maxCaptionRunes), columns(buttons, 3)
}

func (s screens) cart(snap model.CartSnapshot) (string, [][]adapter.InlineButton) {
	var b strings.Builder
	buttons := make([]adapter.InlineButton, 0, len(snap.Lines)+2)
	if snap.IsEmpty() {
		b.WriteString(s.tr.T("cart_empty"))
	} else {
		b.WriteString(s.tr.T("cart_header"))
		for _, l := range snap.Lines {
			b.WriteString("\n\n")
			b.WriteString(s.tr.T("cart_line", l.Name, s.qty(l.Quantity), s.unit(), s.money(l.LinePrice)))
			buttons = append(buttons, adapter.InlineButton{Text: s.tr.T("btn_remove", l.Name), Data: RemoveToken(l.ProductID)})
		}
		b.WriteString("\n\n")
		b.WriteString(s.tr.T("cart_total", s.money(snap.Total())))
	}

	if snap.Total().IsPositive() {
		buttons = append(buttons, adapter.InlineButton{Text: s.tr.T("btn_checkout"), Data: TokenCheckout})
	}
	buttons = append(buttons, adapter.InlineButton{Text: s.tr.T("btn_back"), Data: TokenMenu})
	return clip(b.String(), maxTextRunes), columns(buttons, 1)
}

func (s screens) registeredMenu() (string, [][]adapter.InlineButton) {
	return s.tr.T("registered_menu"), columns([]adapter.InlineButton{
		{Text: s.tr.T("btn_edit_data"), Data: TokenEditData},
		{Text: s.tr.T("btn_place_order"), Data: TokenPlaceOrder},
	}, 2)
}

// nameProposal asks whether the chat profile name is the customer's name.
func (s screens) nameProposal(from model.Sender) (string, [][]adapter.InlineButton) {
	key := "name_confirm_first"
	if strings.TrimSpace(from.LastName) != "" {
		key = "name_confirm_full"
	}
	return s.tr.T(key, from.FullName()), columns([]adapter.InlineButton{
		{Text: s.tr.T("btn_name_ok"), Data: TokenNameOK},
		{Text: s.tr.T("btn_name_change"), Data: TokenNameChange},
	}, 2)
}

func (s screens) orderPlaced() (string, [][]adapter.InlineButton) {
	return s.tr.T("order_placed"), [][]adapter.InlineButton{
		{{Text: s.tr.T("btn_back_to_products"), Data: TokenMenu}},
	}
}

func (s screens) cartButton() adapter.InlineButton {
	return adapter.InlineButton{Text: s.tr.T("btn_cart"), Data: TokenCart}
}

// columns lays buttons out in rows of at most n.
func columns(buttons []adapter.InlineButton, n int) [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
