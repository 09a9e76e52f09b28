// Package view renders catalog, cart and user data for the terminal.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/product/pkg/response"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorError  = lipgloss.Color("#E74C3C")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// Products renders the filtered catalog followed by its count.
func Products(products []response.Product, source string) string {
	t := newTable("ID", "NAME", "CATEGORY", "SIZE", "COLOR", "PRICE", "STOCK")
	for _, p := range products {
		t.Row(p.ID, p.Name, p.Category, p.Size, p.Color, p.Price.StringFixed(2), strconv.Itoa(p.Stock))
	}
	b := strings.Builder{}
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d products", len(products))))
	if source != "" {
		b.WriteString(mutedStyle.Render(" (" + source + ")"))
	}
	b.WriteString("\n")
	return b.String()
}

func Product(p response.Product) string {
	return titleStyle.Render(p.Name) + mutedStyle.Render(" id="+p.ID) + "\n"
}

// Cart renders the lines of cart with their subtotals and the cart totals.
func Cart(cart cartResponse.Cart) string {
	if cart.IsEmpty() {
		return mutedStyle.Render("cart of "+cart.UserID+" is empty") + "\n"
	}
	t := newTable("PRODUCT", "NAME", "SIZE", "QTY", "PRICE", "SUBTOTAL")
	for _, item := range cart.Items {
		t.Row(
			item.ProductID,
			item.ProductName,
			item.Size,
			strconv.Itoa(item.Quantity),
			item.ProductPrice.StringFixed(2),
			item.Subtotal().StringFixed(2),
		)
	}
	return t.String() + "\n" + titleStyle.Render(fmt.Sprintf(
		"%d items, total %s",
		cart.TotalItems,
		cart.TotalPrice.StringFixed(2),
	)) + "\n"
}

// Checkout renders the stock outcome of every purchased line.
func Checkout(result cartResponse.CheckoutResult) string {
	t := newTable("PRODUCT", "NAME", "ACTION", "REMAINING")
	for _, update := range result.StockUpdates {
		t.Row(
			update.ProductID,
			update.ProductName,
			update.Result.Action,
			strconv.Itoa(update.Result.RemainingStock),
		)
	}
	message := result.Message
	if message == "" {
		message = "purchase completed"
	}
	return t.String() + "\n" + titleStyle.Render(message) + "\n"
}

func Principal(p auth.Principal) string {
	return titleStyle.Render(p.Email) + mutedStyle.Render(fmt.Sprintf(" id=%s role=%s", p.UserID, p.Role)) + "\n"
}

func Error(message string) string {
	return errorStyle.Render(message) + "\n"
}
