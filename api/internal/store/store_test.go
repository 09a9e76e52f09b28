package store

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/mock"
	"github.com/Alturino/storefront/product/pkg/response"
)

type newStoreFunc func(t *testing.T) Store

func setupRedis(t *testing.T) Store {
	t.Helper()
	c := context.Background()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}
	s := NewRedis(redis.NewClient(opts))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func setupPostgres(t *testing.T) Store {
	t.Helper()
	c := context.Background()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("storefront"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}
	pool, err := pgxpool.New(c, connStr)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	if err := infra.Migrate(c, pool, "storefront", "file://../../../migrations"); err != nil {
		t.Fatalf("failed migrating postgres with error: %s", err)
	}
	s := NewPostgres(pool)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func product(id string, stock int) response.Product {
	return response.Product{
		ID:          id,
		Name:        "Producto " + id,
		Price:       decimal.RequireFromString("19.99"),
		Description: "descripcion",
		Category:    response.CategoryShirts,
		Image:       "https://picsum.photos/300/200?random=" + id,
		Size:        "M",
		Color:       "Negro",
		Stock:       stock,
	}
}

func testStore(t *testing.T, newStore newStoreFunc) {
	t.Run("products keep insertion order", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		for _, id := range []string{"b", "a", "c"} {
			_, err := s.InsertProduct(c, product(id, 5))
			require.NoError(t, err)
		}
		products, err := s.ListProducts(c)
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, []string{"b", "a", "c"}, []string{products[0].ID, products[1].ID, products[2].ID})
		assert.True(t, products[0].Price.Equal(decimal.RequireFromString("19.99")))
	})

	t.Run("product crud", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		_, err := s.FindProduct(c, "x")
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)

		_, err = s.InsertProduct(c, product("x", 3))
		require.NoError(t, err)
		_, err = s.InsertProduct(c, product("x", 3))
		assert.ErrorIs(t, err, inErrors.ErrProductAlreadyExist)

		updated := product("x", 9)
		updated.Name = "Renombrado"
		_, err = s.UpdateProduct(c, updated)
		require.NoError(t, err)
		found, err := s.FindProduct(c, "x")
		require.NoError(t, err)
		assert.Equal(t, "Renombrado", found.Name)
		assert.Equal(t, 9, found.Stock)

		_, err = s.UpdateProduct(c, product("missing", 1))
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)

		require.NoError(t, s.DeleteProduct(c, "x"))
		assert.ErrorIs(t, s.DeleteProduct(c, "x"), inErrors.ErrProductNotFound)
	})

	t.Run("users are found by email ignoring case", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		_, err := s.FindUserByEmail(c, "nadie@tienda.com")
		assert.ErrorIs(t, err, inErrors.ErrUserNotFound)

		user := User{ID: "1", Email: "admin@tienda.com", Name: "Admin", PasswordHash: "hash", Role: auth.RoleAdmin}
		require.NoError(t, s.InsertUser(c, user))
		found, err := s.FindUserByEmail(c, "Admin@Tienda.com")
		require.NoError(t, err)
		assert.Equal(t, "1", found.ID)
		assert.Equal(t, auth.RoleAdmin, found.Role)
	})

	t.Run("carts round trip", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		_, err := s.FindCart(c, "u1")
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)

		cart := cartResponse.Cart{
			UserID: "u1",
			Items: []cartResponse.CartItem{
				{ProductID: "2", ProductName: "Jeans", ProductPrice: decimal.RequireFromString("59.99"), Size: "L", Quantity: 1},
				{ProductID: "1", ProductName: "Camiseta", ProductPrice: decimal.RequireFromString("25.99"), Size: "M", Quantity: 2},
			},
		}.WithTotals()
		require.NoError(t, s.SaveCart(c, cart))

		found, err := s.FindCart(c, "u1")
		require.NoError(t, err)
		require.Len(t, found.Items, 2)
		assert.Equal(t, "2", found.Items[0].ProductID)
		assert.Equal(t, 3, found.TotalItems)
		assert.True(t, found.TotalPrice.Equal(decimal.RequireFromString("111.97")))

		cart.Items = cart.Items[:1]
		require.NoError(t, s.SaveCart(c, cart.WithTotals()))
		found, err = s.FindCart(c, "u1")
		require.NoError(t, err)
		assert.Len(t, found.Items, 1)

		require.NoError(t, s.DeleteCart(c, "u1"))
		_, err = s.FindCart(c, "u1")
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
	})

	t.Run("take stock decrements and deletes", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		_, err := s.InsertProduct(c, product("a", 5))
		require.NoError(t, err)
		_, err = s.InsertProduct(c, product("b", 2))
		require.NoError(t, err)

		updates, err := s.TakeStock(c, []StockChange{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 1},
			{ProductID: "b", Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.Equal(t, cartResponse.ActionDecremented, updates[0].Result.Action)
		assert.Equal(t, 3, updates[0].Result.RemainingStock)
		assert.Equal(t, cartResponse.ActionDeleted, updates[1].Result.Action)
		assert.Equal(t, 0, updates[1].Result.RemainingStock)

		found, err := s.FindProduct(c, "a")
		require.NoError(t, err)
		assert.Equal(t, 3, found.Stock)
		_, err = s.FindProduct(c, "b")
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
	})

	t.Run("take stock is all or nothing", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		_, err := s.InsertProduct(c, product("a", 5))
		require.NoError(t, err)
		_, err = s.InsertProduct(c, product("b", 1))
		require.NoError(t, err)

		_, err = s.TakeStock(c, []StockChange{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 2}})
		assert.ErrorIs(t, err, inErrors.ErrOutOfStock)
		_, err = s.TakeStock(c, []StockChange{{ProductID: "a", Quantity: 1}, {ProductID: "zz", Quantity: 1}})
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)

		found, err := s.FindProduct(c, "a")
		require.NoError(t, err)
		assert.Equal(t, 5, found.Stock)
	})

	t.Run("concurrent take stock never oversells", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		_, err := s.InsertProduct(c, product("a", 4))
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.TakeStock(c, []StockChange{{ProductID: "a", Quantity: 1}}); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 4, succeeded)
	})

	t.Run("seed fills an empty store once", func(t *testing.T) {
		c := context.Background()
		s := newStore(t)

		require.NoError(t, Seed(c, s))
		require.NoError(t, Seed(c, s))
		products, err := s.ListProducts(c)
		require.NoError(t, err)
		assert.Len(t, products, len(mock.Products()))

		user, err := s.FindUserByEmail(c, "admin@tienda.com")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("admin123")))
	})
}

func TestMemory(t *testing.T) {
	testStore(t, func(t *testing.T) Store { return NewMemory() })
}

func TestRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testStore(t, setupRedis)
}

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testStore(t, setupPostgres)
}

func TestMerge(t *testing.T) {
	testCases := []struct {
		name     string
		changes  []StockChange
		expected []StockChange
	}{
		{name: "empty", changes: nil, expected: []StockChange{}},
		{
			name:     "distinct products keep order",
			changes:  []StockChange{{ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 2}},
			expected: []StockChange{{ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 2}},
		},
		{
			name:     "same product is summed",
			changes:  []StockChange{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 3}},
			expected: []StockChange{{ProductID: "a", Quantity: 4}, {ProductID: "b", Quantity: 1}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Merge(tc.changes))
		})
	}
}

func TestNewUnknownStore(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Api: config.Api{Store: "mongo"}})
	assert.ErrorIs(t, err, inErrors.ErrUnknownStore)

	s, err := New(context.Background(), &config.Config{Api: config.Api{Store: KindMemory}})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}
