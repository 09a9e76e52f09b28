package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

const userID = "2"

func line(productID string, size string, quantity int) response.CartItem {
	return response.CartItem{
		ProductID:    productID,
		ProductName:  "product " + productID,
		ProductPrice: prices[productID],
		Size:         size,
		Quantity:     quantity,
	}
}

func assertTotals(t *testing.T, cart response.Cart) {
	t.Helper()
	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range cart.Items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.Equal(t, totalItems, cart.TotalItems)
	assert.True(t, totalPrice.Equal(cart.TotalPrice), "total price %s != %s", cart.TotalPrice, totalPrice)
}

func TestSessionLoad(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*fakeClient)
		expectedItems int
		expectedTotal int
	}{
		{
			name:          "given user without cart should return empty cart",
			setup:         func(f *fakeClient) {},
			expectedItems: 0,
			expectedTotal: 0,
		},
		{
			name: "given user with cart should return cart",
			setup: func(f *fakeClient) {
				f.seed(userID, line("1", "M", 2), line("2", "L", 1))
			},
			expectedItems: 2,
			expectedTotal: 3,
		},
		{
			name: "given fetch failure should fall back to empty cart",
			setup: func(f *fakeClient) {
				f.seed(userID, line("1", "M", 2))
				f.getErr = errors.New("connection refused")
			},
			expectedItems: 0,
			expectedTotal: 0,
		},
		{
			name: "given stale totals from remote should recompute totals",
			setup: func(f *fakeClient) {
				f.seed(userID, line("1", "M", 2))
				f.staleTotal = true
			},
			expectedItems: 1,
			expectedTotal: 2,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := newFakeClient()
			test.setup(client)
			session := NewSession(client)
			assert.Equal(t, StateNoCart, session.State())

			cart := session.Load(context.Background(), userID)

			assert.Equal(t, userID, cart.UserID)
			assert.NotNil(t, cart.Items)
			assert.Len(t, cart.Items, test.expectedItems)
			assert.Equal(t, test.expectedTotal, cart.TotalItems)
			assertTotals(t, cart)
			assert.Equal(t, StateReady, session.State())
			assert.Equal(t, cart, session.Cart())
		})
	}
}

func TestSessionAddToCart(t *testing.T) {
	tests := []struct {
		name             string
		input            request.AddToCart
		expectedErr      error
		expectedQuantity int
		expectedCalls    int
	}{
		{
			name:             "given valid request should add and refetch",
			input:            request.AddToCart{UserID: userID, ProductID: "1", Size: "M", Quantity: 2},
			expectedErr:      nil,
			expectedQuantity: 2,
			expectedCalls:    1,
		},
		{
			name:             "given zero quantity should add one",
			input:            request.AddToCart{UserID: userID, ProductID: "1", Size: "M"},
			expectedErr:      nil,
			expectedQuantity: 1,
			expectedCalls:    1,
		},
		{
			name:             "given empty user should not call remote",
			input:            request.AddToCart{ProductID: "1", Size: "M", Quantity: 1},
			expectedErr:      inErrors.ErrUnidentifiedUser,
			expectedQuantity: 0,
			expectedCalls:    0,
		},
		{
			name:             "given blank user should not call remote",
			input:            request.AddToCart{UserID: "  ", ProductID: "1", Size: "M", Quantity: 1},
			expectedErr:      inErrors.ErrUnidentifiedUser,
			expectedQuantity: 0,
			expectedCalls:    0,
		},
		{
			name:             "given negative quantity should not call remote",
			input:            request.AddToCart{UserID: userID, ProductID: "1", Size: "M", Quantity: -1},
			expectedErr:      inErrors.ErrInvalidQuantity,
			expectedQuantity: 0,
			expectedCalls:    0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := newFakeClient()
			session := NewSession(client)
			c := context.Background()
			session.Load(c, userID)

			cart, err := session.AddToCart(c, test.input)

			assert.Equal(t, test.expectedCalls, client.Calls("AddToCart"))
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				assert.Equal(t, 1, client.Calls("GetCart"), "no refetch after a rejected intent")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, client.Calls("GetCart"), "refetch after add")
			item, ok := cart.Find("1", "M")
			require.True(t, ok)
			assert.Equal(t, test.expectedQuantity, item.Quantity)
			assertTotals(t, cart)
		})
	}
}

func TestSessionAddMergesLines(t *testing.T) {
	client := newFakeClient()
	session := NewSession(client)
	c := context.Background()

	_, err := session.AddToCart(c, request.AddToCart{UserID: userID, ProductID: "1", Size: "M"})
	require.NoError(t, err)
	_, err = session.AddToCart(c, request.AddToCart{UserID: userID, ProductID: "1", Size: "M"})
	require.NoError(t, err)
	cart, err := session.AddToCart(c, request.AddToCart{UserID: userID, ProductID: "1", Size: "L"})
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2, "same product in another size is another line")
	item, _ := cart.Find("1", "M")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 3, cart.TotalItems)
	assertTotals(t, cart)
}

func TestSessionUpdateCartItem(t *testing.T) {
	tests := []struct {
		name          string
		quantity      int
		expectedErr   error
		expectedCalls int
	}{
		{
			name:          "given quantity above zero should update and refetch",
			quantity:      5,
			expectedErr:   nil,
			expectedCalls: 1,
		},
		{
			name:          "given zero quantity should not call remote",
			quantity:      0,
			expectedErr:   inErrors.ErrInvalidQuantity,
			expectedCalls: 0,
		},
		{
			name:          "given negative quantity should not call remote",
			quantity:      -2,
			expectedErr:   inErrors.ErrInvalidQuantity,
			expectedCalls: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := newFakeClient()
			client.seed(userID, line("1", "M", 2))
			session := NewSession(client)
			c := context.Background()
			session.Load(c, userID)

			cart, err := session.UpdateCartItem(c, request.UpdateCartItem{
				UserID:    userID,
				ProductID: "1",
				Size:      "M",
				Quantity:  test.quantity,
			})

			assert.Equal(t, test.expectedCalls, client.Calls("UpdateCartItem"))
			item, ok := cart.Find("1", "M")
			require.True(t, ok)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				assert.Equal(t, 2, item.Quantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.quantity, item.Quantity)
			assertTotals(t, cart)
		})
	}
}

func TestSessionIncrementDecrement(t *testing.T) {
	client := newFakeClient()
	client.seed(userID, line("1", "M", 1))
	session := NewSession(client)
	c := context.Background()
	session.Load(c, userID)

	cart, err := session.Decrement(c, userID, "1", "M")
	require.NoError(t, err)
	assert.Equal(t, 0, client.Calls("UpdateCartItem"), "decrement at one issues no remote call")
	assert.Equal(t, 1, client.Calls("GetCart"))
	item, _ := cart.Find("1", "M")
	assert.Equal(t, 1, item.Quantity)

	cart, err = session.Increment(c, userID, "1", "M")
	require.NoError(t, err)
	item, _ = cart.Find("1", "M")
	assert.Equal(t, 2, item.Quantity)

	cart, err = session.Decrement(c, userID, "1", "M")
	require.NoError(t, err)
	item, _ = cart.Find("1", "M")
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 2, client.Calls("UpdateCartItem"))

	cart, err = session.Increment(c, userID, "2", "L")
	require.NoError(t, err)
	assert.Equal(t, 1, client.Calls("AddToCart"), "increment of a missing line adds it")
	assert.Len(t, cart.Items, 2)
	assertTotals(t, cart)
}

func TestSessionIncrementDecrementOtherUsersCart(t *testing.T) {
	tests := []struct {
		name     string
		apply    func(c context.Context, session *Session) (response.Cart, error)
		expected int
		updates  int
	}{
		{
			name: "decrement keeps quantity one",
			apply: func(c context.Context, session *Session) (response.Cart, error) {
				return session.Decrement(c, "bob", "1", "M")
			},
			expected: 1,
			updates:  0,
		},
		{
			name: "increment counts from the user's own line",
			apply: func(c context.Context, session *Session) (response.Cart, error) {
				return session.Increment(c, "bob", "1", "M")
			},
			expected: 2,
			updates:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.seed("alice", line("1", "M", 5))
			client.seed("bob", line("1", "M", 1))
			session := NewSession(client)
			c := context.Background()
			session.Load(c, "alice")

			cart, err := tt.apply(c, session)

			require.NoError(t, err)
			assert.Equal(t, "bob", cart.UserID)
			item, ok := cart.Find("1", "M")
			require.True(t, ok)
			assert.Equal(t, tt.expected, item.Quantity)
			assert.Equal(t, tt.updates, client.Calls("UpdateCartItem"))

			alice, err := client.GetCart(c, "alice")
			require.NoError(t, err)
			item, _ = alice.Find("1", "M")
			assert.Equal(t, 5, item.Quantity)
		})
	}
}

func TestSessionRemoveFromCart(t *testing.T) {
	client := newFakeClient()
	client.seed(userID, line("1", "M", 1), line("1", "L", 3))
	session := NewSession(client)
	c := context.Background()
	session.Load(c, userID)

	cart, err := session.RemoveFromCart(c, request.RemoveFromCart{UserID: userID, ProductID: "1", Size: "M"})

	require.NoError(t, err)
	_, ok := cart.Find("1", "M")
	assert.False(t, ok)
	item, ok := cart.Find("1", "L")
	assert.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 3, cart.TotalItems)
}

func TestSessionMutationFailureKeepsPreviousCart(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*fakeClient)
		expectedErr   error
		expectedIsRej bool
	}{
		{
			name:          "given transport failure should return error and keep cart",
			setup:         func(f *fakeClient) { f.mutateErr = errors.New("connection reset") },
			expectedErr:   nil,
			expectedIsRej: false,
		},
		{
			name:          "given business rejection should return rejected and keep cart",
			setup:         func(f *fakeClient) { f.reject = "insufficient stock" },
			expectedErr:   inErrors.ErrRejected,
			expectedIsRej: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := newFakeClient()
			client.seed(userID, line("1", "M", 2))
			session := NewSession(client)
			c := context.Background()
			before := session.Load(c, userID)
			test.setup(client)

			cart, err := session.AddToCart(c, request.AddToCart{UserID: userID, ProductID: "2", Size: "L"})

			require.Error(t, err)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
			}
			assert.Equal(t, test.expectedIsRej, IsRejected(err))
			assert.Equal(t, before, cart)
			assert.Equal(t, before, session.Cart())
			assert.Equal(t, StateReady, session.State())
			assert.Equal(t, 1, client.Calls("GetCart"), "no refetch after a failed mutation")
		})
	}
}

func TestSessionRefetchFailureFallsBackToEmpty(t *testing.T) {
	client := newFakeClient()
	client.seed(userID, line("1", "M", 2))
	session := NewSession(client)
	c := context.Background()
	session.Load(c, userID)

	client.mu.Lock()
	client.getErr = errors.New("timeout")
	client.mu.Unlock()
	cart, err := session.AddToCart(c, request.AddToCart{UserID: userID, ProductID: "1", Size: "M"})

	require.NoError(t, err)
	assert.Equal(t, response.EmptyCart(userID), cart)
	assert.Equal(t, StateReady, session.State())
}

func TestSessionCheckout(t *testing.T) {
	client := newFakeClient()
	client.seed(userID, line("1", "M", 2), line("2", "L", 1))
	session := NewSession(client)
	c := context.Background()
	session.Load(c, userID)

	result, err := session.Checkout(c, userID)

	require.NoError(t, err)
	assert.Equal(t, 1, client.Calls("Checkout"))
	assert.Equal(t, 2, client.Calls("GetCart"), "checkout refetches the cart")
	assert.Len(t, result.StockUpdates, 2)
	assert.Equal(t, "compra realizada", result.Message)
	assert.Equal(t, 0, result.Cart.TotalItems)
	assert.Empty(t, result.Cart.Items)
	assert.True(t, result.Cart.TotalPrice.IsZero())
	assert.Equal(t, result.Cart, session.Cart())
}

func TestSessionCheckoutEmptyCart(t *testing.T) {
	client := newFakeClient()
	session := NewSession(client)
	c := context.Background()
	session.Load(c, userID)

	_, err := session.Checkout(c, userID)

	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
	assert.Equal(t, 0, client.Calls("Checkout"))
}

func TestSessionCheckoutLoadsOtherUsersCart(t *testing.T) {
	client := newFakeClient()
	client.seed("1", line("2", "L", 1))
	session := NewSession(client)
	c := context.Background()

	result, err := session.Checkout(c, "1")

	require.NoError(t, err)
	assert.Len(t, result.StockUpdates, 1)
	assert.Equal(t, "1", result.Cart.UserID)
}

func TestSessionDiscardsStaleRefetch(t *testing.T) {
	client := newFakeClient()
	client.seed(userID, line("1", "M", 1))
	session := NewSession(client)
	c := context.Background()
	session.Load(c, userID)

	blocked := make(chan struct{})
	release := make(chan struct{})
	client.mu.Lock()
	client.beforeGetReturn = func(call int) {
		if call == 2 {
			close(blocked)
			<-release
		}
	}
	client.mu.Unlock()

	done := make(chan response.Cart)
	go func() {
		cart, err := session.Increment(c, userID, "1", "M")
		assert.NoError(t, err)
		done <- cart
	}()

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("first refetch never started")
	}

	latest, err := session.UpdateCartItem(c, request.UpdateCartItem{
		UserID:    userID,
		ProductID: "1",
		Size:      "M",
		Quantity:  7,
	})
	require.NoError(t, err)
	item, _ := latest.Find("1", "M")
	assert.Equal(t, 7, item.Quantity)

	close(release)
	stale := <-done

	assert.Equal(t, latest, stale, "stale refetch returns the newer cart")
	item, _ = session.Cart().Find("1", "M")
	assert.Equal(t, 7, item.Quantity)
	assert.Equal(t, StateReady, session.State())
}
