package commerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
)

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out productsResponse
	q := url.Values{"include": {"main_image"}}
	if err := c.doJSON(ctx, "list_products", http.MethodGet, c.endpoint("/pcm/products", q), nil, &out); err != nil {
		return nil, err
	}

	images := make(map[string]fileDTO, len(out.Included.MainImages))
	for _, f := range out.Included.MainImages {
		images[f.ID] = f
	}

	products := make([]model.Product, 0, len(out.Data))
	for i, d := range out.Data {
		p := model.Product{
			ID:          d.ID,
			Name:        d.Attributes.Name,
			Description: d.Attributes.Description,
			SKU:         d.Attributes.SKU,
			Slug:        d.Attributes.Slug,
		}
		switch rel := d.Relationships.MainImage.Data; {
		case rel != nil:
			if f, ok := images[rel.ID]; ok {
				p.Image = f.ref()
			}
		case i < len(out.Included.MainImages):
			// older payloads omit relationships and rely on include order
			p.Image = out.Included.MainImages[i].ref()
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *Client) GetStock(ctx context.Context, productID string) (int, error) {
	if productID == "" {
		return 0, domain.ErrInvalidArgument
	}
	var out inventoryResponse
	if err := c.doJSON(ctx, "get_stock", http.MethodGet, c.endpoint("/v2/inventories/"+url.PathEscape(productID), nil), nil, &out); err != nil {
		return 0, err
	}
	if out.Data.Available < 0 {
		return 0, nil
	}
	return out.Data.Available, nil
}

// ListPriceBook resolves the configured price book by name and maps sku to unit price.
func (c *Client) ListPriceBook(ctx context.Context) (map[string]decimal.Decimal, error) {
	var books priceBooksResponse
	if err := c.doJSON(ctx, "list_pricebooks", http.MethodGet, c.endpoint("/pcm/pricebooks", nil), nil, &books); err != nil {
		return nil, err
	}
	bookID := ""
	for _, b := range books.Data {
		if b.Attributes.Name == c.priceBook {
			bookID = b.ID
			break
		}
	}
	if bookID == "" {
		return nil, fmt.Errorf("price book %q: %w", c.priceBook, domain.ErrNotFound)
	}

	var book priceBookResponse
	q := url.Values{"include": {"prices"}}
	if err := c.doJSON(ctx, "get_pricebook", http.MethodGet, c.endpoint("/pcm/pricebooks/"+url.PathEscape(bookID), q), nil, &book); err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(book.Included))
	for _, inc := range book.Included {
		if inc.Attributes.SKU == "" {
			continue
		}
		cur, ok := inc.Attributes.Currencies[c.currency]
		if !ok {
			continue
		}
		prices[inc.Attributes.SKU] = minorUnits(cur.Amount)
	}
	return prices, nil
}

func (c *Client) FetchImage(ctx context.Context, ref model.ImageRef) ([]byte, error) {
	if ref.URL == "" {
		return nil, errors.New("product has no image")
	}
	return c.do(ctx, "fetch_image", http.MethodGet, ref.URL, nil, maxImageBytes)
}
