package request

import (
	"github.com/Alturino/storefront/cart/pkg/response"
)

type AddToCart struct {
	UserID    string `validate:"required"        json:"user_id"`
	ProductID string `validate:"required"        json:"product_id"`
	Size      string `validate:"required"        json:"size"`
	Quantity  int    `validate:"omitempty,gte=1" json:"quantity"`
}

type UpdateCartItem struct {
	UserID    string `validate:"required" json:"user_id"`
	ProductID string `validate:"required" json:"product_id"`
	Size      string `validate:"required" json:"size"`
	Quantity  int    `validate:"gte=1"    json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `validate:"required" json:"user_id"`
	ProductID string `validate:"required" json:"product_id"`
	Size      string `validate:"required" json:"size"`
}

type Checkout struct {
	UserID string              `validate:"required"       json:"user_id"`
	Items  []response.CartItem `validate:"required,min=1" json:"items"`
}
