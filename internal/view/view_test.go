package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/mock"
)

func TestProducts(t *testing.T) {
	rendered := Products(mock.Products(), "mock")
	assert.Contains(t, rendered, "Camiseta Básica Blanca")
	assert.Contains(t, rendered, "25.99")
	assert.Contains(t, rendered, "6 products")
	assert.Contains(t, rendered, "mock")
}

func TestCart(t *testing.T) {
	testCases := []struct {
		name     string
		input    cartResponse.Cart
		expected []string
	}{
		{
			name:     "empty",
			input:    cartResponse.EmptyCart("u1"),
			expected: []string{"cart of u1 is empty"},
		},
		{
			name: "with items",
			input: cartResponse.Cart{
				UserID: "u1",
				Items: []cartResponse.CartItem{
					{ProductID: "1", ProductName: "Camiseta", ProductPrice: decimal.RequireFromString("25.99"), Size: "M", Quantity: 2},
				},
			}.WithTotals(),
			expected: []string{"Camiseta", "51.98", "2 items, total 51.98"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rendered := Cart(tc.input)
			for _, expected := range tc.expected {
				assert.Contains(t, rendered, expected)
			}
		})
	}
}

func TestCheckout(t *testing.T) {
	rendered := Checkout(cartResponse.CheckoutResult{
		StockUpdates: []cartResponse.StockUpdate{
			{ProductID: "5", ProductName: "Zapatos", Result: cartResponse.StockResult{Action: cartResponse.ActionDeleted}},
		},
	})
	assert.Contains(t, rendered, "deleted")
	assert.Contains(t, rendered, "purchase completed")
}

func TestPrincipal(t *testing.T) {
	rendered := Principal(auth.Principal{UserID: "1", Email: "admin@tienda.com", Role: auth.RoleAdmin})
	assert.Contains(t, rendered, "admin@tienda.com")
	assert.Contains(t, rendered, "administrador")
}
