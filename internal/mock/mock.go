// Package mock holds the static catalog and users served when the collaborator cannot be
// reached. The reference API seeds its stores from the same data.
package mock

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/product/pkg/response"
)

type User struct {
	ID       string
	Email    string
	Password string
	Name     string
	Role     auth.Role
}

var products = []response.Product{
	{
		ID:          "1",
		Name:        "Camiseta Básica Blanca",
		Price:       decimal.RequireFromString("25.99"),
		Description: "Camiseta de algodón 100% de alta calidad, perfecta para el día a día.",
		Category:    response.CategoryShirts,
		Image:       "https://picsum.photos/300/200?random=1",
		Size:        "M",
		Color:       "Blanco",
		Stock:       50,
	},
	{
		ID:          "2",
		Name:        "Jeans Clásicos Azules",
		Price:       decimal.RequireFromString("59.99"),
		Description: "Jeans de corte clásico en denim azul, cómodos y duraderos.",
		Category:    response.CategoryTrousers,
		Image:       "https://picsum.photos/300/200?random=2",
		Size:        "L",
		Color:       "Azul",
		Stock:       30,
	},
	{
		ID:          "3",
		Name:        "Vestido Elegante Negro",
		Price:       decimal.RequireFromString("89.99"),
		Description: "Vestido elegante para ocasiones especiales, corte A-line.",
		Category:    response.CategoryDresses,
		Image:       "https://picsum.photos/300/200?random=3",
		Size:        "M",
		Color:       "Negro",
		Stock:       20,
	},
	{
		ID:          "4",
		Name:        "Zapatos Deportivos",
		Price:       decimal.RequireFromString("79.99"),
		Description: "Zapatos deportivos cómodos para caminar y hacer ejercicio.",
		Category:    response.CategoryShoes,
		Image:       "https://picsum.photos/300/200?random=4",
		Size:        "42",
		Color:       "Negro",
		Stock:       25,
	},
	{
		ID:          "5",
		Name:        "Collar de Plata",
		Price:       decimal.RequireFromString("45.99"),
		Description: "Collar elegante de plata 925, perfecto para complementar cualquier outfit.",
		Category:    response.CategoryAccessories,
		Image:       "https://picsum.photos/300/200?random=5",
		Size:        "Único",
		Color:       "Plata",
		Stock:       15,
	},
	{
		ID:          "6",
		Name:        "Sudadera con Capucha",
		Price:       decimal.RequireFromString("49.99"),
		Description: "Sudadera cómoda con capucha, ideal para días frescos.",
		Category:    response.CategoryShirts,
		Image:       "https://picsum.photos/300/200?random=6",
		Size:        "L",
		Color:       "Verde",
		Stock:       35,
	},
}

var users = []User{
	{
		ID:       "1",
		Email:    "admin@tienda.com",
		Password: "admin123",
		Name:     "Administrador",
		Role:     auth.RoleAdmin,
	},
	{
		ID:       "2",
		Email:    "usuario@usuario.com",
		Password: "usuario123",
		Name:     "Usuario",
		Role:     auth.RoleUser,
	},
}

// Products returns a fresh copy of the static catalog.
func Products() []response.Product {
	return slices.Clone(products)
}

func Users() []User {
	return slices.Clone(users)
}

// FindUser returns the mock user with exactly this email and password.
func FindUser(email string, password string) (User, bool) {
	for _, u := range users {
		if u.Email == email && u.Password == password {
			return u, true
		}
	}
	return User{}, false
}
