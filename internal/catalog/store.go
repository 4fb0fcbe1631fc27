package catalog

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map"
)

// Store holds the loaded product list and the active category filter for one
// chat. Filtering is stable: VisibleProducts preserves load order.
type Store struct {
	mu         sync.RWMutex
	products   []Product
	categories []string
	notices    []Notice
	filter     string
}

func NewStore() *Store {
	return &Store{filter: CategoryAll}
}

// Load replaces the product list with the feed's normalized products.
// Delisted products are dropped here, once, not per filter call. The
// category pill list is re-derived: the sentinel first, then preset
// categories actually present in preset order, with the "other" bucket last.
func (s *Store) Load(feed Feed) {
	products := make([]Product, 0, len(feed.Products))
	present := orderedmap.New()
	for _, raw := range feed.Products {
		p := newProduct(raw)
		if p.Delisted() {
			continue
		}
		products = append(products, p)
		present.Set(p.Category, struct{}{})
	}

	categories := []string{CategoryAll}
	for _, c := range PresetCategories[1:] {
		if _, ok := present.Get(c); ok {
			categories = append(categories, c)
		}
	}
	if _, ok := present.Get(CategoryOther); ok {
		categories = append(categories, CategoryOther)
	}

	var notices []Notice
	for _, n := range feed.Notices {
		if n.Active.Bool() {
			notices = append(notices, n)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.categories = categories
	s.notices = notices
}

// SetFilter sets the active category. Any value is accepted; an unknown one
// simply yields an empty visible subset, which mirrors how the shop page
// behaves and is deliberately not "fixed" here.
func (s *Store) SetFilter(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = category
}

// Filter returns the active category.
func (s *Store) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// VisibleProducts returns the products matching the active filter, in their
// original relative order.
func (s *Store) VisibleProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.filter == CategoryAll {
		return append([]Product(nil), s.products...)
	}
	var out []Product
	for _, p := range s.products {
		if p.Category == s.filter {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the derived pill list.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.categories...)
}

// Get finds a product by identifier.
func (s *Store) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Notices returns the feed's active notices.
func (s *Store) Notices() []Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notice(nil), s.notices...)
}
