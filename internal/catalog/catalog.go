package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"greenlife/internal/domain"
)

// record is the raw catalog-file shape for one product. Category comes from
// the enclosing map key when the record omits it.
type record struct {
	Name             string   `json:"name" yaml:"name"`
	Description      string   `json:"description" yaml:"description"`
	Price            *float64 `json:"price" yaml:"price"`
	Category         string   `json:"category" yaml:"category"`
	UnitSize         string   `json:"unit_size" yaml:"unit_size"`
	Stock            *int     `json:"stock" yaml:"stock"`
	MinOrderQuantity *int     `json:"min_order_quantity" yaml:"min_order_quantity"`
}

// Catalog is an immutable-after-load mapping of product IDs to products.
// All read operations are side-effect free and safe for concurrent use.
type Catalog struct {
	products map[string]domain.Product
	order    []string // load order, for stable All() output
}

// Load reads a catalog data file (category → product ID → record) and builds
// a Catalog. The extension selects the decoder (.yaml/.yml or JSON). Any
// missing required field fails the load; the process must not start with a
// partial catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog load: %w", err)
	}

	var raw map[string]map[string]record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("catalog parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("catalog parse %s: %w", path, err)
		}
	}

	return build(raw)
}

// build converts raw records into a Catalog, validating every field.
func build(raw map[string]map[string]record) (*Catalog, error) {
	c := &Catalog{products: make(map[string]domain.Product)}

	// Sort category and product keys so load order (and All) is deterministic.
	categories := make([]string, 0, len(raw))
	for cat := range raw {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		ids := make([]string, 0, len(raw[cat]))
		for id := range raw[cat] {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			rec := raw[cat][id]
			p, err := rec.toProduct(id, cat)
			if err != nil {
				return nil, err
			}
			if _, dup := c.products[id]; dup {
				return nil, fmt.Errorf("catalog: duplicate product id %q", id)
			}
			c.products[id] = p
			c.order = append(c.order, id)
		}
	}
	return c, nil
}

// toProduct validates a record and produces the immutable Product.
func (r record) toProduct(id, category string) (domain.Product, error) {
	missing := func(field string) (domain.Product, error) {
		return domain.Product{}, fmt.Errorf("catalog: product %q: missing required field %q", id, field)
	}
	if r.Name == "" {
		return missing("name")
	}
	if r.Description == "" {
		return missing("description")
	}
	if r.Price == nil {
		return missing("price")
	}
	if r.UnitSize == "" {
		return missing("unit_size")
	}
	if r.Stock == nil {
		return missing("stock")
	}
	if r.MinOrderQuantity == nil {
		return missing("min_order_quantity")
	}
	if *r.Price < 0 {
		return domain.Product{}, fmt.Errorf("catalog: product %q: price must be >= 0", id)
	}
	if *r.Stock < 0 {
		return domain.Product{}, fmt.Errorf("catalog: product %q: stock must be >= 0", id)
	}
	if *r.MinOrderQuantity < 1 {
		return domain.Product{}, fmt.Errorf("catalog: product %q: min_order_quantity must be >= 1", id)
	}
	if r.Category != "" {
		category = r.Category
	}
	return domain.Product{
		ID:               id,
		Name:             r.Name,
		Description:      r.Description,
		Price:            *r.Price,
		Category:         category,
		UnitSize:         r.UnitSize,
		Stock:            *r.Stock,
		MinOrderQuantity: *r.MinOrderQuantity,
	}, nil
}

// Lookup returns the product with the given ID, or false if absent.
func (c *Catalog) Lookup(id string) (domain.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// All returns every product in load order.
func (c *Catalog) All() []domain.Product {
	out := make([]domain.Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.products[id])
	}
	return out
}

// ByCategory returns products whose category matches name, case-insensitively.
func (c *Catalog) ByCategory(name string) []domain.Product {
	var out []domain.Product
	for _, id := range c.order {
		p := c.products[id]
		if strings.EqualFold(p.Category, name) {
			out = append(out, p)
		}
	}
	return out
}

// Search returns products whose name or description contains term,
// case-insensitively. No ranking is applied.
func (c *Catalog) Search(term string) []domain.Product {
	term = strings.ToLower(term)
	var out []domain.Product
	for _, id := range c.order {
		p := c.products[id]
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

// FindByName returns the product whose display name matches name,
// case-insensitively. Tool calls reference products by display name, so this
// is the dispatcher's resolution step.
func (c *Catalog) FindByName(name string) (domain.Product, bool) {
	for _, id := range c.order {
		p := c.products[id]
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int { return len(c.products) }
