package request

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/product/pkg/response"
)

const DefaultProductImage = "https://picsum.photos/300/200?random=7"

// Product is the add/edit product form. Price and Stock are kept as typed text so a
// non-numeric value is reported as a validation error instead of a decode error.
type Product struct {
	Name        string `validate:"required"                                                        json:"name"`
	Price       string `validate:"required,price"                                                  json:"price"`
	Description string `validate:"required"                                                        json:"description"`
	Category    string `validate:"required,oneof=Camisetas Pantalones Vestidos Zapatos Accesorios" json:"category"`
	Image       string `validate:"omitempty,url"                                                   json:"image"`
	Size        string `validate:"required"                                                        json:"size"`
	Color       string `validate:"required"                                                        json:"color"`
	Stock       string `validate:"omitempty,number"                                                json:"stock"`
}

// Trimmed returns a copy with surrounding whitespace removed from the free text fields.
func (p Product) Trimmed() Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = strings.TrimSpace(p.Price)
	p.Description = strings.TrimSpace(p.Description)
	p.Image = strings.TrimSpace(p.Image)
	p.Color = strings.TrimSpace(p.Color)
	p.Stock = strings.TrimSpace(p.Stock)
	return p
}

// Product converts a validated form into a catalog entry. An empty image gets the default
// product image and an empty stock becomes 0.
func (p Product) Product(id string) response.Product {
	price, _ := decimal.NewFromString(p.Price)
	stock, _ := strconv.Atoi(p.Stock)
	image := p.Image
	if image == "" {
		image = DefaultProductImage
	}
	product := response.Product{
		ID:          id,
		Name:        p.Name,
		Price:       price,
		Description: p.Description,
		Category:    p.Category,
		Image:       image,
		Size:        p.Size,
		Color:       p.Color,
		Stock:       stock,
	}
	product.Normalize()
	return product
}

// FindProduct is a catalog query: free text plus category selector.
type FindProduct struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}
