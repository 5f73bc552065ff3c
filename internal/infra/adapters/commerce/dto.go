package commerce

import (
	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain/model"
)

type productsResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			SKU         string `json:"sku"`
			Slug        string `json:"slug"`
		} `json:"attributes"`
		Relationships struct {
			MainImage struct {
				Data *struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"main_image"`
		} `json:"relationships"`
	} `json:"data"`
	Included struct {
		MainImages []fileDTO `json:"main_images"`
	} `json:"included"`
}

type fileDTO struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Link     struct {
		Href string `json:"href"`
	} `json:"link"`
}

func (f fileDTO) ref() model.ImageRef {
	return model.ImageRef{ID: f.ID, URL: f.Link.Href, MimeType: f.MimeType}
}

type priceBooksResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

type priceBookResponse struct {
	Included []struct {
		Type       string `json:"type"`
		Attributes struct {
			SKU        string `json:"sku"`
			Currencies map[string]struct {
				Amount      int64 `json:"amount"`
				IncludesTax bool  `json:"includes_tax"`
			} `json:"currencies"`
		} `json:"attributes"`
	} `json:"included"`
}

type inventoryResponse struct {
	Data struct {
		Total     int `json:"total"`
		Available int `json:"available"`
		Allocated int `json:"allocated"`
	} `json:"data"`
}

type cartItemsResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Quantity  int    `json:"quantity"`
		Meta      struct {
			DisplayPrice struct {
				WithoutDiscount struct {
					Value struct {
						Amount   int64  `json:"amount"`
						Currency string `json:"currency"`
					} `json:"value"`
				} `json:"without_discount"`
			} `json:"display_price"`
		} `json:"meta"`
	} `json:"data"`
}

func (r cartItemsResponse) snapshot() model.CartSnapshot {
	snap := model.CartSnapshot{Lines: make([]model.CartLine, 0, len(r.Data))}
	for _, it := range r.Data {
		if it.Type != "" && it.Type != "cart_item" {
			continue // promotions and custom items have no product behind them
		}
		snap.Lines = append(snap.Lines, model.CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			LinePrice: minorUnits(it.Meta.DisplayPrice.WithoutDiscount.Value.Amount),
		})
	}
	return snap
}

type cartItemRequest struct {
	Data struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Quantity int    `json:"quantity"`
	} `json:"data"`
}

type stockTransactionRequest struct {
	Data struct {
		Type     string `json:"type"`
		Action   string `json:"action"`
		Quantity int    `json:"quantity"`
	} `json:"data"`
}

type customerRequest struct {
	Data struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

type customerResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// minorUnits converts cents to a decimal amount.
func minorUnits(amount int64) decimal.Decimal { return decimal.New(amount, -2) }
