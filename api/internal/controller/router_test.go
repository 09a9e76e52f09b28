package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/api/internal/store"
	"github.com/Alturino/storefront/cart/pkg/request"
	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/client"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/product/pkg/response"
	userRequest "github.com/Alturino/storefront/user/pkg/request"
)

func newServer(t *testing.T) (*httptest.Server, *client.Client) {
	t.Helper()
	s := store.NewMemory()
	require.NoError(t, store.Seed(context.Background(), s))
	server := httptest.NewServer(NewRouter(zerolog.Nop(), s))
	t.Cleanup(server.Close)
	return server, client.New(server.URL+"/api", 0)
}

func TestProducts(t *testing.T) {
	c := context.Background()
	_, cl := newServer(t)

	products, err := cl.GetProducts(c)
	require.NoError(t, err)
	require.Len(t, products, 6)
	assert.Equal(t, "1", products[0].ID)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("25.99")))

	created, err := cl.AddProduct(c, response.Product{
		ID:       "gorra",
		Name:     "Gorra",
		Price:    decimal.RequireFromString("12.5"),
		Category: response.CategoryAccessories,
		Stock:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, "gorra", created.ID)

	_, err = cl.AddProduct(c, created)
	assert.ErrorIs(t, err, inErrors.ErrRejected)
	assert.ErrorIs(t, err, inErrors.ErrUnexpectedStatus)
	assert.Equal(t, inErrors.ErrProductAlreadyExist.Error(), client.RejectionMessage(err))

	created.Stock = 7
	updated, err := cl.UpdateProduct(c, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	require.NoError(t, cl.DeleteProduct(c, created.ID))
	err = cl.DeleteProduct(c, created.ID)
	assert.ErrorIs(t, err, inErrors.ErrRejected)
	assert.Equal(t, inErrors.ErrProductNotFound.Error(), client.RejectionMessage(err))
}

func TestLogin(t *testing.T) {
	c := context.Background()
	_, cl := newServer(t)

	testCases := []struct {
		name     string
		input    userRequest.LoginRequest
		expected auth.Role
		err      error
	}{
		{
			name:     "admin",
			input:    userRequest.LoginRequest{Email: "admin@tienda.com", Password: "admin123"},
			expected: auth.RoleAdmin,
		},
		{
			name:     "user",
			input:    userRequest.LoginRequest{Email: "usuario@usuario.com", Password: "usuario123"},
			expected: auth.RoleUser,
		},
		{
			name:  "wrong password",
			input: userRequest.LoginRequest{Email: "admin@tienda.com", Password: "admin"},
			err:   inErrors.ErrRejected,
		},
		{
			name:  "missing password",
			input: userRequest.LoginRequest{Email: "admin@tienda.com"},
			err:   inErrors.ErrRejected,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := cl.Login(c, tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, user.Role)
			assert.Equal(t, tc.input.Email, user.Email)
		})
	}
}

func TestCartFlow(t *testing.T) {
	c := context.Background()
	_, cl := newServer(t)

	cart, err := cl.GetCart(c, "2")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	_, err = cl.AddToCart(c, request.AddToCart{UserID: "2", ProductID: "1", Size: "M", Quantity: 2})
	require.NoError(t, err)
	_, err = cl.AddToCart(c, request.AddToCart{UserID: "2", ProductID: "1", Size: "M", Quantity: 1})
	require.NoError(t, err)
	_, err = cl.AddToCart(c, request.AddToCart{UserID: "2", ProductID: "5", Size: "S", Quantity: 15})
	require.NoError(t, err)

	_, err = cl.AddToCart(c, request.AddToCart{UserID: "2", ProductID: "5", Size: "S", Quantity: 1})
	assert.ErrorIs(t, err, inErrors.ErrRejected)
	assert.Equal(t, inErrors.ErrOutOfStock.Error(), client.RejectionMessage(err))

	_, err = cl.AddToCart(c, request.AddToCart{UserID: "2", ProductID: "nope", Size: "S", Quantity: 1})
	assert.ErrorIs(t, err, inErrors.ErrUnexpectedStatus)

	cart, err = cl.GetCart(c, "2")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 18, cart.TotalItems)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "Camiseta Básica Blanca", cart.Items[0].ProductName)

	_, err = cl.UpdateCartItem(c, request.UpdateCartItem{UserID: "2", ProductID: "1", Size: "M", Quantity: 1})
	require.NoError(t, err)
	_, err = cl.RemoveFromCart(c, request.RemoveFromCart{UserID: "2", ProductID: "1", Size: "M"})
	require.NoError(t, err)

	cart, err = cl.GetCart(c, "2")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	checkout, err := cl.Checkout(c, request.Checkout{UserID: "2", Items: cart.Items})
	require.NoError(t, err)
	assert.True(t, checkout.Success)
	require.Len(t, checkout.StockUpdates, 1)
	assert.Equal(t, cartResponse.ActionDeleted, checkout.StockUpdates[0].Result.Action)

	cart, err = cl.GetCart(c, "2")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	products, err := cl.GetProducts(c)
	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestStatusCodes(t *testing.T) {
	server, _ := newServer(t)

	testCases := []struct {
		name     string
		method   string
		path     string
		body     string
		expected int
	}{
		{name: "missing cart", method: http.MethodGet, path: "/api/cart/nobody", expected: http.StatusNotFound},
		{name: "malformed body", method: http.MethodPost, path: "/api/cart/add", body: "{", expected: http.StatusBadRequest},
		{name: "invalid body", method: http.MethodPost, path: "/api/cart/add", body: `{"user_id":"1"}`, expected: http.StatusBadRequest},
		{name: "empty checkout", method: http.MethodPost, path: "/api/checkout", body: `{"user_id":"1","items":[]}`, expected: http.StatusBadRequest},
		{name: "bad credentials", method: http.MethodPost, path: "/api/auth/login", body: `{"username":"admin@tienda.com","password":"x"}`, expected: http.StatusUnauthorized},
		{name: "invalid product", method: http.MethodPost, path: "/api/products", body: `{"id":"x","price":1}`, expected: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", expected: http.StatusNotFound},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expected: http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, server.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			assert.Equal(t, tc.expected, resp.StatusCode)
		})
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	server, _ := newServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/products", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-1", resp.Header.Get("X-Request-Id"))
}
