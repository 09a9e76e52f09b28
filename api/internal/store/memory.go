package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/product/pkg/response"
)

// Memory keeps everything in process. Products keep their insertion order.
type Memory struct {
	mu       sync.RWMutex
	products []response.Product
	users    map[string]User
	carts    map[string]cartResponse.Cart
}

func NewMemory() *Memory {
	return &Memory{
		products: []response.Product{},
		users:    map[string]User{},
		carts:    map[string]cartResponse.Cart{},
	}
}

func (m *Memory) indexOf(id string) int {
	return slices.IndexFunc(m.products, func(p response.Product) bool { return p.ID == id })
}

func (m *Memory) ListProducts(c context.Context) ([]response.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.products), nil
}

func (m *Memory) FindProduct(c context.Context, id string) (response.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, id)
	}
	return m.products[i], nil
}

func (m *Memory) InsertProduct(c context.Context, product response.Product) (response.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(product.ID) >= 0 {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductAlreadyExist, product.ID)
	}
	m.products = append(m.products, product)
	return product, nil
}

func (m *Memory) UpdateProduct(c context.Context, product response.Product) (response.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(product.ID)
	if i < 0 {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, product.ID)
	}
	m.products[i] = product
	return product, nil
}

func (m *Memory) DeleteProduct(c context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, id)
	}
	m.products = slices.Delete(m.products, i, i+1)
	return nil
}

func (m *Memory) InsertUser(c context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[strings.ToLower(user.Email)] = user
	return nil
}

func (m *Memory) FindUserByEmail(c context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return User{}, fmt.Errorf("%w email=%s", inErrors.ErrUserNotFound, email)
	}
	return user, nil
}

func (m *Memory) FindCart(c context.Context, userID string) (cartResponse.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[userID]
	if !ok {
		return cartResponse.Cart{}, fmt.Errorf("%w userId=%s", inErrors.ErrCartNotFound, userID)
	}
	cart.Items = slices.Clone(cart.Items)
	return cart, nil
}

func (m *Memory) SaveCart(c context.Context, cart cartResponse.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart.Items = slices.Clone(cart.Items)
	m.carts[cart.UserID] = cart
	return nil
}

func (m *Memory) DeleteCart(c context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *Memory) TakeStock(
	c context.Context,
	changes []StockChange,
) ([]cartResponse.StockUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changes = Merge(changes)
	for _, change := range changes {
		i := m.indexOf(change.ProductID)
		if i < 0 {
			return nil, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, change.ProductID)
		}
		if m.products[i].Stock < change.Quantity {
			return nil, outOfStock(m.products[i], change.Quantity)
		}
	}

	updates := make([]cartResponse.StockUpdate, 0, len(changes))
	for _, change := range changes {
		i := m.indexOf(change.ProductID)
		update := stockUpdate(m.products[i], change.Quantity)
		if update.Result.Action == cartResponse.ActionDeleted {
			m.products = slices.Delete(m.products, i, i+1)
		} else {
			m.products[i].Stock = update.Result.RemainingStock
		}
		updates = append(updates, update)
	}
	return updates, nil
}

func (m *Memory) Close() error {
	return nil
}
