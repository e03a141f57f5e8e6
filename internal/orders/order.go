// Package orders records cash-on-delivery orders placed through the bot.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
)

const (
	PaymentCashOnDelivery = "cash_on_delivery"
	StatusPlaced          = "placed"
)

var (
	// ErrNotFound is returned when an order id is unknown.
	ErrNotFound = errors.New("orders: not found")
	// ErrDuplicate is returned when an order key was already saved.
	ErrDuplicate = errors.New("orders: duplicate order key")
)

// Line is one cart entry captured at checkout. Duplicate items stay separate lines.
type Line struct {
	ItemID string        `json:"item_id"`
	Name   string        `json:"name"`
	Price  catalog.Money `json:"price"`
}

// Order is a placed order. ID is the customer-facing number shown in chat;
// it repeats every million milliseconds, so Key is the storage identity.
type Order struct {
	Key           string        `json:"order_key"`
	ID            string        `json:"order_id"`
	CustomerPhone string        `json:"customer_phone"`
	CustomerName  string        `json:"customer_name"`
	Lines         []Line        `json:"lines"`
	Total         catalog.Money `json:"total"`
	PaymentMethod string        `json:"payment_method"`
	Status        string        `json:"status"`
	PlacedAt      time.Time     `json:"placed_at"`
}

// ItemIDs returns the ordered item ids of the order.
func (o Order) ItemIDs() []string {
	ids := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		ids = append(ids, l.ItemID)
	}
	return ids
}

// LinesFromItems snapshots catalog items into order lines.
func LinesFromItems(items []catalog.Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{ItemID: it.ID, Name: it.Name, Price: it.Price})
	}
	return lines
}

// Store persists orders. Save never overwrites: a reused Key is
// ErrDuplicate. Find returns every order carrying a display id, newest first.
type Store interface {
	Save(ctx context.Context, order Order) error
	Find(ctx context.Context, id string) ([]Order, error)
}

// Latest returns the most recent order with display id id.
func Latest(ctx context.Context, store Store, id string) (Order, error) {
	found, err := store.Find(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if len(found) == 0 {
		return Order{}, ErrNotFound
	}
	return found[0], nil
}
