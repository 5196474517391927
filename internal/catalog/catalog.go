package catalog

import (
	"sync"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
)

// AllCategories is the category filter value that matches every product.
const AllCategories = "Все"

// Catalog holds the stores and products of one session. It is populated once
// the backend answers and is read-only afterwards.
type Catalog struct {
	mu         sync.RWMutex
	loaded     bool
	stores     []domain.Store
	products   []domain.Product
	storeIdx   map[string]int
	productIdx map[string]int
}

func New() *Catalog {
	return &Catalog{
		storeIdx:   make(map[string]int),
		productIdx: make(map[string]int),
	}
}

// Populate replaces the catalog contents. Entries without an id are dropped,
// and the first entry wins when ids repeat.
func (c *Catalog) Populate(stores []domain.Store, products []domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stores = make([]domain.Store, 0, len(stores))
	c.storeIdx = make(map[string]int, len(stores))
	for _, s := range stores {
		if _, dup := c.storeIdx[s.ID]; s.ID == "" || dup {
			continue
		}
		c.storeIdx[s.ID] = len(c.stores)
		c.stores = append(c.stores, s)
	}

	c.products = make([]domain.Product, 0, len(products))
	c.productIdx = make(map[string]int, len(products))
	for _, p := range products {
		if _, dup := c.productIdx[p.ID]; p.ID == "" || dup {
			continue
		}
		if p.PackSize < 1 {
			p.PackSize = 1
		}
		c.productIdx[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	c.loaded = true
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) Stores() []domain.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Store(nil), c.stores...)
}

func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product(nil), c.products...)
}

func (c *Catalog) StoreByID(id string) (domain.Store, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.storeIdx[id]
	if !ok {
		return domain.Store{}, false
	}
	return c.stores[i], true
}

func (c *Catalog) ProductByID(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.productIdx[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// MatchLegacy finds the product a cart line written without an id refers to:
// by SKU first, then by exact title.
func (c *Catalog) MatchLegacy(sku, title string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if sku != "" {
		for _, p := range c.products {
			if p.SKU == sku {
				return p, true
			}
		}
	}
	if title != "" {
		for _, p := range c.products {
			if p.Title == title {
				return p, true
			}
		}
	}
	return domain.Product{}, false
}

// Categories lists distinct product categories in first-seen order, led by
// AllCategories.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	out := []string{AllCategories}
	for _, p := range c.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// FilterProducts returns products in category (or any, for AllCategories or
// "") whose title or SKU contains query.
func (c *Catalog) FilterProducts(query, category string) []domain.Product {
	m := newMatcher(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range c.products {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if m.match(p.Title) || m.match(p.SKU) {
			out = append(out, p)
		}
	}
	return out
}

// FilterStores matches query against name, address, registration number and phone.
func (c *Catalog) FilterStores(query string) []domain.Store {
	m := newMatcher(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Store, 0)
	for _, s := range c.stores {
		if m.match(s.Name) || m.match(s.Address) || m.match(s.BinIIN) || m.match(s.Phone) {
			out = append(out, s)
		}
	}
	return out
}
