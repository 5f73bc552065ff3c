package model

import "telegram-fish-shop/internal/domain"

// ImageRef points at a product's main image file.
type ImageRef struct {
	ID       string
	URL      string
	MimeType string
}

// Product is the read model loaded once from the catalog at startup.
type Product struct {
	ID          string
	Name        string
	Description string
	SKU         string
	Slug        string
	Image       ImageRef
}

// Catalog is an immutable, ordered product list with lookup by id.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	copy(c.products, products)
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// Products returns a copy in backend order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, domain.ErrUnknownProduct
	}
	return c.products[i], nil
}
