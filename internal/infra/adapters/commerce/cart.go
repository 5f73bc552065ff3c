package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
)

// Carts are keyed by chat id, so every chat owns exactly one backend cart.
func (c *Client) cartItemsURL(chatID int64) string {
	return c.endpoint("/v2/carts/"+strconv.FormatInt(chatID, 10)+"/items", nil)
}

func (c *Client) AddCartLine(ctx context.Context, chatID int64, productID string, qty int) (model.CartSnapshot, error) {
	if productID == "" || qty <= 0 {
		return model.CartSnapshot{}, domain.ErrInvalidArgument
	}
	var req cartItemRequest
	req.Data.ID = productID
	req.Data.Type = "cart_item"
	req.Data.Quantity = qty

	var out cartItemsResponse
	if err := c.doJSON(ctx, "add_cart_line", http.MethodPost, c.cartItemsURL(chatID), req, &out); err != nil {
		return model.CartSnapshot{}, err
	}
	return out.snapshot(), nil
}

func (c *Client) RemoveCartLine(ctx context.Context, chatID int64, lineID string) (model.CartSnapshot, error) {
	if lineID == "" {
		return model.CartSnapshot{}, domain.ErrInvalidArgument
	}
	u := c.endpoint("/v2/carts/"+strconv.FormatInt(chatID, 10)+"/items/"+url.PathEscape(lineID), nil)
	var out cartItemsResponse
	if err := c.doJSON(ctx, "remove_cart_line", http.MethodDelete, u, nil, &out); err != nil {
		return model.CartSnapshot{}, err
	}
	return out.snapshot(), nil
}

func (c *Client) GetCart(ctx context.Context, chatID int64) (model.CartSnapshot, error) {
	var out cartItemsResponse
	if err := c.doJSON(ctx, "get_cart", http.MethodGet, c.cartItemsURL(chatID), nil, &out); err != nil {
		return model.CartSnapshot{}, err
	}
	return out.snapshot(), nil
}

func (c *Client) ReserveStock(ctx context.Context, productID string, qty int) error {
	return c.stockTransaction(ctx, "reserve_stock", productID, "allocate", qty)
}

func (c *Client) ReleaseStock(ctx context.Context, productID string, qty int) error {
	return c.stockTransaction(ctx, "release_stock", productID, "deallocate", qty)
}

func (c *Client) stockTransaction(ctx context.Context, op, productID, action string, qty int) error {
	if productID == "" || qty <= 0 {
		return domain.ErrInvalidArgument
	}
	var req stockTransactionRequest
	req.Data.Type = "stock-transaction"
	req.Data.Action = action
	req.Data.Quantity = qty

	u := c.endpoint("/v2/inventories/"+url.PathEscape(productID)+"/transactions", nil)
	return c.doJSON(ctx, op, http.MethodPost, u, req, nil)
}
