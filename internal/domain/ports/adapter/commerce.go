package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"telegram-fish-shop/internal/domain/model"
)

// TokenSource hands out a bearer token that passed a validity probe.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// CatalogGateway is the read side of the commerce backend.
type CatalogGateway interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetStock(ctx context.Context, productID string) (int, error)
	// ListPriceBook maps sku to unit price for the configured price book.
	ListPriceBook(ctx context.Context) (map[string]decimal.Decimal, error)
	FetchImage(ctx context.Context, ref model.ImageRef) ([]byte, error)
}

// OrderGateway holds the mutating backend calls. None of them retry.
type OrderGateway interface {
	AddCartLine(ctx context.Context, chatID int64, productID string, qty int) (model.CartSnapshot, error)
	RemoveCartLine(ctx context.Context, chatID int64, lineID string) (model.CartSnapshot, error)
	GetCart(ctx context.Context, chatID int64) (model.CartSnapshot, error)
	ReserveStock(ctx context.Context, productID string, qty int) error
	ReleaseStock(ctx context.Context, productID string, qty int) error
	CreateCustomer(ctx context.Context, fields model.CustomerFields) (string, error)
	UpdateCustomer(ctx context.Context, customerID string, fields model.CustomerFields) error
}
