package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	userRequest "github.com/Alturino/storefront/user/pkg/request"
)

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestGetProducts(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected []string
		errs     []error
	}{
		{
			name:     "ids from id and _id",
			handler:  reply(http.StatusOK, `{"success":true,"products":[{"id":"1","name":"a","price":1},{"_id":"2","name":"b","price":"2.50"}]}`),
			expected: []string{"1", "2"},
		},
		{
			name:     "missing products",
			handler:  reply(http.StatusOK, `{"success":true}`),
			expected: []string{},
		},
		{
			name:    "success false",
			handler: reply(http.StatusOK, `{"success":false,"message":"down"}`),
			errs:    []error{inErrors.ErrRejected},
		},
		{
			name:    "server error without envelope",
			handler: reply(http.StatusBadGateway, `bad gateway`),
			errs:    []error{inErrors.ErrUnexpectedStatus},
		},
		{
			name:    "client error with envelope",
			handler: reply(http.StatusBadRequest, `{"success":false,"message":"nope"}`),
			errs:    []error{inErrors.ErrUnexpectedStatus, inErrors.ErrRejected},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			products, err := New(server.URL, 0).GetProducts(context.Background())
			if len(tc.errs) > 0 {
				for _, expected := range tc.errs {
					assert.ErrorIs(t, err, expected)
				}
				return
			}
			require.NoError(t, err)
			ids := []string{}
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	server := httptest.NewServer(reply(http.StatusBadRequest, `{"success":false,"message":"insufficient stock"}`))
	defer server.Close()

	_, err := New(server.URL, 0).AddToCart(
		context.Background(),
		request.AddToCart{UserID: "u1", ProductID: "1", Size: "M", Quantity: 9},
	)
	require.Error(t, err)
	assert.Equal(t, "insufficient stock", RejectionMessage(err))
	assert.Equal(t, "", RejectionMessage(inErrors.ErrEmptyCart))
}

func TestRequestHeaders(t *testing.T) {
	var (
		requestID   string
		contentType string
		body        map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(http.StatusOK, `{"success":true,"user":{"id":"1","username":"admin@tienda.com","role":"administrador"}}`)(w, r)
	}))
	defer server.Close()

	c := log.AttachRequestIDToContext(context.Background(), "req-42")
	user, err := New(server.URL+"/", time.Second).Login(
		c,
		userRequest.LoginRequest{Email: "admin@tienda.com", Password: "admin123"},
	)
	require.NoError(t, err)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]any{"username": "admin@tienda.com", "password": "admin123"}, body)
	assert.Equal(t, "admin@tienda.com", user.Email)
	assert.Equal(t, "admin@tienda.com", user.Name)
}

func TestGetCart(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected response.Cart
		err      error
	}{
		{
			name:     "missing cart is empty",
			handler:  reply(http.StatusNotFound, `{"success":false,"message":"cart not found"}`),
			expected: response.EmptyCart("u1"),
		},
		{
			name:     "cart without user id or items",
			handler:  reply(http.StatusOK, `{"success":true,"cart":{"total_items":0,"total_price":0}}`),
			expected: response.EmptyCart("u1"),
		},
		{
			name:    "server error",
			handler: reply(http.StatusInternalServerError, `{"success":false,"message":"boom"}`),
			err:     inErrors.ErrUnexpectedStatus,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			cart, err := New(server.URL, 0).GetCart(context.Background(), "u1")
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.UserID, cart.UserID)
			assert.Equal(t, tc.expected.Items, cart.Items)
			assert.Equal(t, tc.expected.TotalItems, cart.TotalItems)
		})
	}
}

func TestCheckout(t *testing.T) {
	server := httptest.NewServer(reply(
		http.StatusOK,
		`{"success":true,"stock_updates":[{"product_id":"5","product_name":"Zapatos","result":{"action":"deleted","remaining_stock":0}}]}`,
	))
	defer server.Close()

	checkout, err := New(server.URL, 0).Checkout(
		context.Background(),
		request.Checkout{UserID: "u1", Items: []response.CartItem{{ProductID: "5", Size: "M", Quantity: 1}}},
	)
	require.NoError(t, err)
	require.Len(t, checkout.StockUpdates, 1)
	assert.Equal(t, response.ActionDeleted, checkout.StockUpdates[0].Result.Action)
}
