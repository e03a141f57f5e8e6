package catalog

import "strings"

// RowTitleLimit is the WhatsApp list row title budget.
const RowTitleLimit = 24

const outOfStockSuffix = " (OOS)"

// FormatRowTitle fits name into max runes, reserving room for an out-of-stock
// suffix when the item is unavailable.
func FormatRowTitle(name string, stock StockStatus, max int) string {
	if max <= 0 {
		max = RowTitleLimit
	}
	suffix := ""
	if stock == OutOfStock {
		suffix = outOfStockSuffix
	}
	room := max - len([]rune(suffix))
	if room < 0 {
		room = 0
	}
	runes := []rune(name)
	if len(runes) > room {
		name = strings.TrimSpace(string(runes[:room]))
	}
	return name + suffix
}

// RowTitle is FormatRowTitle with the default budget.
func (i Item) RowTitle() string {
	return FormatRowTitle(i.Name, i.Stock, RowTitleLimit)
}
