// Package catalog holds the read-only product data the bot sells from: items,
// the recommendation and substitution tables, and the single registered customer.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// StockStatus is the availability label of an item.
type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	OutOfStock StockStatus = "out_of_stock"
)

// Item is a purchasable product.
type Item struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    Money       `json:"price"`
	Category string      `json:"category"`
	Stock    StockStatus `json:"stock"`
}

// InStock reports whether the item can be added to a cart.
func (i Item) InStock() bool {
	return i.Stock != OutOfStock
}

// Customer is the registered customer allowed to use the bot.
type Customer struct {
	Phone     string   `json:"phone"`
	Name      string   `json:"name"`
	LastOrder []string `json:"last_order_items"`
}

// Data is the serialized shape of a catalog, used by Load and New.
type Data struct {
	Items           []Item              `json:"items"`
	Recommendations map[string][]string `json:"recommendations"`
	Substitutions   map[string][]string `json:"substitutions"`
	Customer        Customer            `json:"customer"`
}

// Catalog is an immutable, validated view over Data.
type Catalog struct {
	items      map[string]Item
	order      []string
	categories []string
	byCategory map[string][]string
	recs       map[string][]string
	subs       map[string][]string
	customer   Customer
}

var ErrInvalidCatalog = errors.New("catalog: invalid data")

// New validates data and builds a Catalog. Item order and category order follow
// the order items appear in data.
func New(data Data) (*Catalog, error) {
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidCatalog)
	}
	c := &Catalog{
		items:      make(map[string]Item, len(data.Items)),
		byCategory: make(map[string][]string),
		recs:       make(map[string][]string),
		subs:       make(map[string][]string),
	}
	for _, item := range data.Items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return nil, fmt.Errorf("%w: item with empty id", ErrInvalidCatalog)
		}
		if _, dup := c.items[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalidCatalog, item.ID)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%w: negative price for item %q", ErrInvalidCatalog, item.ID)
		}
		switch item.Stock {
		case InStock, OutOfStock:
		case "":
			item.Stock = InStock
		default:
			return nil, fmt.Errorf("%w: unknown stock status %q for item %q", ErrInvalidCatalog, item.Stock, item.ID)
		}
		if strings.TrimSpace(item.Category) == "" {
			return nil, fmt.Errorf("%w: item %q has no category", ErrInvalidCatalog, item.ID)
		}
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
		if _, seen := c.byCategory[item.Category]; !seen {
			c.categories = append(c.categories, item.Category)
		}
		c.byCategory[item.Category] = append(c.byCategory[item.Category], item.ID)
	}

	if err := c.copyRelation(c.recs, data.Recommendations, "recommendation"); err != nil {
		return nil, err
	}
	if err := c.copyRelation(c.subs, data.Substitutions, "substitution"); err != nil {
		return nil, err
	}

	c.customer = Customer{
		Phone:     normalizePhone(data.Customer.Phone),
		Name:      data.Customer.Name,
		LastOrder: append([]string(nil), data.Customer.LastOrder...),
	}
	for _, id := range c.customer.LastOrder {
		if _, ok := c.items[id]; !ok {
			return nil, fmt.Errorf("%w: customer last order references unknown item %q", ErrInvalidCatalog, id)
		}
	}
	return c, nil
}

func (c *Catalog) copyRelation(dst map[string][]string, src map[string][]string, label string) error {
	for from, targets := range src {
		if _, ok := c.items[from]; !ok {
			return fmt.Errorf("%w: %s key %q is not an item", ErrInvalidCatalog, label, from)
		}
		for _, to := range targets {
			if _, ok := c.items[to]; !ok {
				return fmt.Errorf("%w: %s %q -> %q targets an unknown item", ErrInvalidCatalog, label, from, to)
			}
		}
		dst[from] = append([]string(nil), targets...)
	}
	return nil
}

// Load reads a JSON catalog from path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return New(data)
}

// LoadOrDefault loads path when set and falls back to the built-in catalog otherwise.
func LoadOrDefault(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items returns every item in catalog order.
func (c *Catalog) Items() []Item {
	return c.lookup(c.order)
}

// Size is the number of items.
func (c *Catalog) Size() int {
	return len(c.order)
}

// Categories returns category labels in first-appearance order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// InCategory returns the items of a category; nil for unknown categories.
func (c *Catalog) InCategory(category string) []Item {
	return c.lookup(c.byCategory[category])
}

// Recommendations returns the items suggested after adding id.
func (c *Catalog) Recommendations(id string) []Item {
	return c.lookup(c.recs[id])
}

// Substitutions returns the alternatives offered when id is out of stock.
func (c *Catalog) Substitutions(id string) []Item {
	return c.lookup(c.subs[id])
}

// Customer returns the registered customer.
func (c *Catalog) Customer() Customer {
	cust := c.customer
	cust.LastOrder = append([]string(nil), c.customer.LastOrder...)
	return cust
}

// IsKnownCustomer reports whether phone belongs to the registered customer.
func (c *Catalog) IsKnownCustomer(phone string) bool {
	p := normalizePhone(phone)
	return p != "" && p == c.customer.Phone
}

// Lines resolves cart ids to items in insertion order, skipping unknown ids.
func (c *Catalog) Lines(ids []string) []Item {
	return c.lookup(ids)
}

// Total sums unit prices over ids. Duplicates count once per occurrence and
// unknown ids contribute nothing.
func (c *Catalog) Total(ids []string) Money {
	var total Money
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			total += item.Price
		}
	}
	return total
}

func (c *Catalog) lookup(ids []string) []Item {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
