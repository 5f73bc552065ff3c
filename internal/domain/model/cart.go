package model

import "github.com/shopspring/decimal"

// CartLine is one product row of a backend cart.
type CartLine struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	LinePrice decimal.Decimal
}

// CartSnapshot is fetched fresh for every render and never cached.
type CartSnapshot struct {
	Lines []CartLine
}

// Total sums the line prices on every call.
func (c CartSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LinePrice)
	}
	return total
}

func (c CartSnapshot) IsEmpty() bool { return len(c.Lines) == 0 }

// Line finds the line holding productID.
func (c CartSnapshot) Line(productID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}
