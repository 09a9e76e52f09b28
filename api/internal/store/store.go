// Package store persists the reference API state: products, users and carts.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/product/pkg/response"
)

const (
	KindMemory   = "memory"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", u.ID).Str("email", u.Email).Str("role", string(u.Role))
}

// StockChange takes Quantity units of ProductID out of stock.
type StockChange struct {
	ProductID string
	Quantity  int
}

// Store is implemented by the memory, redis and postgres backends. Lookups of missing
// records return ErrProductNotFound, ErrUserNotFound or ErrCartNotFound.
type Store interface {
	ListProducts(c context.Context) ([]response.Product, error)
	FindProduct(c context.Context, id string) (response.Product, error)
	InsertProduct(c context.Context, product response.Product) (response.Product, error)
	UpdateProduct(c context.Context, product response.Product) (response.Product, error)
	DeleteProduct(c context.Context, id string) error

	InsertUser(c context.Context, user User) error
	FindUserByEmail(c context.Context, email string) (User, error)

	FindCart(c context.Context, userID string) (cartResponse.Cart, error)
	SaveCart(c context.Context, cart cartResponse.Cart) error
	DeleteCart(c context.Context, userID string) error

	// TakeStock applies every change or none. A product whose stock reaches zero is
	// deleted. It fails with ErrOutOfStock or ErrProductNotFound.
	TakeStock(c context.Context, changes []StockChange) ([]cartResponse.StockUpdate, error)

	Close() error
}

// Merge sums changes on the same product so stock is checked against the total taken.
func Merge(changes []StockChange) []StockChange {
	merged := []StockChange{}
	index := map[string]int{}
	for _, change := range changes {
		if i, ok := index[change.ProductID]; ok {
			merged[i].Quantity += change.Quantity
			continue
		}
		index[change.ProductID] = len(merged)
		merged = append(merged, change)
	}
	return merged
}

// stockUpdate is the outcome of taking quantity out of product.
func stockUpdate(product response.Product, quantity int) cartResponse.StockUpdate {
	remaining := product.Stock - quantity
	action := cartResponse.ActionDecremented
	if remaining <= 0 {
		remaining = 0
		action = cartResponse.ActionDeleted
	}
	return cartResponse.StockUpdate{
		ProductID:   product.ID,
		ProductName: product.Name,
		Result:      cartResponse.StockResult{Action: action, RemainingStock: remaining},
	}
}

func outOfStock(product response.Product, quantity int) error {
	return fmt.Errorf(
		"%w product=%s stock=%d requested=%d",
		inErrors.ErrOutOfStock,
		product.ID,
		product.Stock,
		quantity,
	)
}
