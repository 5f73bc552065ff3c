package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPendingContact OrderStatus = "pending_contact" // registered, a manager has to call
	OrderStatusContacted      OrderStatus = "contacted"
)

// OrderLine is a frozen copy of a cart line at checkout.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	LinePrice decimal.Decimal `json:"line_price"`
}

// Order journals a finished checkout for the sales team.
type Order struct {
	ID          string
	ChatID      int64
	CustomerID  string
	Name        string
	Email       string
	Phone       string
	Lines       []OrderLine
	Total       decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	ContactedAt *time.Time
}

func NewOrder(chatID int64, customerID string, fields CustomerFields, cart CartSnapshot) (*Order, error) {
	if chatID == 0 || customerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	lines := make([]OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, OrderLine{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, LinePrice: l.LinePrice})
	}
	return &Order{
		ID:         ulid.Make().String(),
		ChatID:     chatID,
		CustomerID: customerID,
		Name:       fields.Name,
		Email:      fields.Email,
		Phone:      fields.Phone,
		Lines:      lines,
		Total:      cart.Total(),
		Status:     OrderStatusPendingContact,
		CreatedAt:  time.Now(),
	}, nil
}

// MarkContacted is idempotent.
func (o *Order) MarkContacted(at time.Time) {
	if o.Status == OrderStatusContacted {
		return
	}
	o.Status = OrderStatusContacted
	o.ContactedAt = &at
}
