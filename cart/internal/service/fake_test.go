package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

var prices = map[string]decimal.Decimal{
	"1": decimal.RequireFromString("25.99"),
	"2": decimal.RequireFromString("59.99"),
}

// fakeClient keeps carts in memory the way the collaborator does and counts every call.
type fakeClient struct {
	mu    sync.Mutex
	carts map[string]response.Cart
	calls map[string]int

	getErr     error
	mutateErr  error
	reject     string
	staleTotal bool

	// beforeGetReturn runs after GetCart took its snapshot and before it returns it.
	beforeGetReturn func(call int)
}

func newFakeClient() *fakeClient {
	return &fakeClient{carts: map[string]response.Cart{}, calls: map[string]int{}}
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name]
}

func (f *fakeClient) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) seed(userID string, items ...response.CartItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = response.Cart{UserID: userID, Items: items}
}

func (f *fakeClient) GetCart(c context.Context, userID string) (response.Cart, error) {
	call := f.count("GetCart")

	f.mu.Lock()
	err := f.getErr
	cart, ok := f.carts[userID]
	if ok {
		cart.Items = append([]response.CartItem{}, cart.Items...)
	}
	hook := f.beforeGetReturn
	staleTotal := f.staleTotal
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return response.Cart{}, err
	}
	if !ok {
		return response.EmptyCart(userID), nil
	}
	cart = cart.WithTotals()
	if staleTotal {
		cart.TotalItems = 999
		cart.TotalPrice = decimal.NewFromInt(999)
	}
	return cart, nil
}

func (f *fakeClient) mutation(userID string, apply func(cart *response.Cart) error) (response.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return response.Ack{}, f.mutateErr
	}
	if f.reject != "" {
		return response.Ack{Success: false, Message: f.reject},
			fmt.Errorf("%w message=%s", inErrors.ErrRejected, f.reject)
	}
	cart, ok := f.carts[userID]
	if !ok {
		cart = response.EmptyCart(userID)
	}
	if err := apply(&cart); err != nil {
		return response.Ack{}, err
	}
	f.carts[userID] = cart
	return response.Ack{Success: true}, nil
}

func (f *fakeClient) AddToCart(c context.Context, param request.AddToCart) (response.Ack, error) {
	f.count("AddToCart")
	return f.mutation(param.UserID, func(cart *response.Cart) error {
		for i, item := range cart.Items {
			if item.Is(param.ProductID, param.Size) {
				cart.Items[i].Quantity += param.Quantity
				return nil
			}
		}
		cart.Items = append(cart.Items, response.CartItem{
			ProductID:    param.ProductID,
			ProductName:  "product " + param.ProductID,
			ProductPrice: prices[param.ProductID],
			Size:         param.Size,
			Quantity:     param.Quantity,
		})
		return nil
	})
}

func (f *fakeClient) UpdateCartItem(c context.Context, param request.UpdateCartItem) (response.Ack, error) {
	f.count("UpdateCartItem")
	return f.mutation(param.UserID, func(cart *response.Cart) error {
		for i, item := range cart.Items {
			if item.Is(param.ProductID, param.Size) {
				cart.Items[i].Quantity = param.Quantity
				return nil
			}
		}
		return inErrors.ErrCartNotFound
	})
}

func (f *fakeClient) RemoveFromCart(c context.Context, param request.RemoveFromCart) (response.Ack, error) {
	f.count("RemoveFromCart")
	return f.mutation(param.UserID, func(cart *response.Cart) error {
		items := []response.CartItem{}
		for _, item := range cart.Items {
			if !item.Is(param.ProductID, param.Size) {
				items = append(items, item)
			}
		}
		cart.Items = items
		return nil
	})
}

func (f *fakeClient) Checkout(c context.Context, param request.Checkout) (response.Checkout, error) {
	f.count("Checkout")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return response.Checkout{}, f.mutateErr
	}
	updates := make([]response.StockUpdate, 0, len(param.Items))
	for _, item := range param.Items {
		updates = append(updates, response.StockUpdate{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Result:      response.StockResult{Action: response.ActionDecremented, RemainingStock: 10},
		})
	}
	delete(f.carts, param.UserID)
	return response.Checkout{Success: true, StockUpdates: updates, Message: "compra realizada"}, nil
}
