package response

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type CartItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductImage string          `json:"product_image"`
	Size         string          `json:"size"`
	Quantity     int             `json:"quantity"`
	AddedAt      *time.Time      `json:"added_at,omitempty"`
}

// Subtotal is price times quantity for this line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Is reports whether the item is the line identified by productID and size.
func (i CartItem) Is(productID string, size string) bool {
	return i.ProductID == productID && i.Size == size
}

func (i CartItem) MarshalZerologObject(e *zerolog.Event) {
	e.Str("productId", i.ProductID).
		Str("size", i.Size).
		Int("quantity", i.Quantity).
		Str("price", i.ProductPrice.String())
}

type Cart struct {
	ID         *string         `json:"_id,omitempty"`
	UserID     string          `json:"user_id"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// EmptyCart is the cart of a user who has nothing in it, or whose cart could not be
// fetched.
func EmptyCart(userID string) Cart {
	return Cart{
		UserID:     userID,
		Items:      []CartItem{},
		TotalItems: 0,
		TotalPrice: decimal.Zero,
	}
}

// WithTotals returns a copy of cart whose totals are recomputed from its items.
func (cart Cart) WithTotals() Cart {
	items := make([]CartItem, 0, len(cart.Items))
	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range cart.Items {
		items = append(items, item)
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.Subtotal())
	}
	cart.Items = items
	cart.TotalItems = totalItems
	cart.TotalPrice = totalPrice
	return cart
}

// Find returns the line identified by productID and size.
func (cart Cart) Find(productID string, size string) (CartItem, bool) {
	for _, item := range cart.Items {
		if item.Is(productID, size) {
			return item, true
		}
	}
	return CartItem{}, false
}

func (cart Cart) IsEmpty() bool {
	return len(cart.Items) == 0
}

func (cart Cart) MarshalZerologObject(e *zerolog.Event) {
	e.Str("userId", cart.UserID).
		Int("items", len(cart.Items)).
		Int("totalItems", cart.TotalItems).
		Str("totalPrice", cart.TotalPrice.String())
}

const (
	ActionDecremented = "decremented"
	ActionDeleted     = "deleted"
)

type StockResult struct {
	Action         string `json:"action"`
	RemainingStock int    `json:"remaining_stock"`
}

type StockUpdate struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Result      StockResult `json:"result"`
}

// Ack is the reply of the cart mutation endpoints.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Checkout struct {
	Success      bool          `json:"success"`
	StockUpdates []StockUpdate `json:"stock_updates"`
	Message      string        `json:"message,omitempty"`
}

// CheckoutResult is what a completed checkout hands back: the stock outcome per line and
// the cart as refetched afterwards.
type CheckoutResult struct {
	StockUpdates []StockUpdate `json:"stock_updates"`
	Message      string        `json:"message,omitempty"`
	Cart         Cart          `json:"cart"`
}
