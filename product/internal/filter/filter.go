package filter

import (
	"strings"

	"github.com/Alturino/storefront/product/pkg/response"
)

// AllCategories is the category selector that disables category filtering.
const AllCategories = "Todas"

// Filter returns the products matching query and category, deduplicated by ID with the
// first occurrence kept. The text filter runs only when the trimmed query is non-empty and
// matches name or description case-insensitively. The input slice is not modified and the
// result is never nil.
func Filter(products []response.Product, query string, category string) []response.Product {
	filtered := make([]response.Product, 0, len(products))
	needle := strings.ToLower(query)
	matchText := strings.TrimSpace(query) != ""
	matchCategory := category != "" && category != AllCategories

	for _, p := range products {
		if matchText && !containsText(p, needle) {
			continue
		}
		if matchCategory && p.Category != category {
			continue
		}
		filtered = append(filtered, p)
	}
	return Dedupe(filtered)
}

func containsText(p response.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

// Dedupe drops every product whose ID already appeared earlier in products.
func Dedupe(products []response.Product) []response.Product {
	seen := make(map[string]struct{}, len(products))
	unique := make([]response.Product, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}
