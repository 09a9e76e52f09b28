package filter

import (
	"slices"
	"sync"
	"time"

	"github.com/Alturino/storefront/product/pkg/response"
)

type OnChangeFunc func(view []response.Product, count int)

// Search keeps a filtered view of a catalog up to date while the query is being typed.
// Query changes are debounced; product and category changes apply immediately and filter
// with the last applied query, never with one still being typed.
type Search struct {
	mu        sync.Mutex
	debouncer *Debouncer
	onChange  OnChangeFunc

	products     []response.Product
	pendingQuery string
	query        string
	category     string
	view         []response.Product
}

func NewSearch(delay time.Duration, onChange OnChangeFunc) *Search {
	return &Search{
		debouncer: NewDebouncer(delay),
		onChange:  onChange,
		category:  AllCategories,
		view:      []response.Product{},
	}
}

func (s *Search) SetProducts(products []response.Product) {
	s.mu.Lock()
	s.products = slices.Clone(products)
	s.mu.Unlock()
	s.evaluate()
}

func (s *Search) SetCategory(category string) {
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
	s.evaluate()
}

// SetQuery records the query and applies it once it has been stable for the debounce
// delay.
func (s *Search) SetQuery(query string) {
	s.mu.Lock()
	s.pendingQuery = query
	s.mu.Unlock()
	s.debouncer.Debounce(s.applyQuery)
}

func (s *Search) applyQuery() {
	s.mu.Lock()
	s.query = s.pendingQuery
	s.mu.Unlock()
	s.evaluate()
}

// Flush applies a pending query change now.
func (s *Search) Flush() {
	s.debouncer.Flush()
}

// Query is the applied query the view is filtered with.
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Search) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Search) View() []response.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.view)
}

func (s *Search) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.view)
}

func (s *Search) Close() {
	s.debouncer.Cancel()
}

func (s *Search) evaluate() {
	s.mu.Lock()
	view := Filter(s.products, s.query, s.category)
	s.view = view
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(slices.Clone(view), len(view))
	}
}
