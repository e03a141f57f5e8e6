package catalog

import (
	"encoding/json"
	"testing"
)

func TestFormatRowTitle(t *testing.T) {
	tests := []struct {
		name  string
		item  string
		stock StockStatus
		max   int
		want  string
	}{
		{"short in stock", "Dolo 650", InStock, 24, "Dolo 650"},
		{"out of stock suffix", "Lubistar Eye Drops", OutOfStock, 24, "Lubistar Eye Drops (OOS)"},
		{"truncated with suffix", "Amoxicillin 250mg Capsules", OutOfStock, 24, "Amoxicillin 250mg (OOS)"},
		{"truncated and trimmed", "Benadryl DR Syrup Extra Strength", InStock, 18, "Benadryl DR Syrup"},
		{"default budget", "Paracetamol 500mg", InStock, 0, "Paracetamol 500mg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatRowTitle(tt.item, tt.stock, tt.max)
			if got != tt.want {
				t.Fatalf("FormatRowTitle(%q) = %q, want %q", tt.item, got, tt.want)
			}
			limit := tt.max
			if limit <= 0 {
				limit = RowTitleLimit
			}
			if n := len([]rune(got)); n > limit {
				t.Fatalf("title %q has %d runes, budget %d", got, n, limit)
			}
		})
	}
}

func TestMoneyRendering(t *testing.T) {
	tests := []struct {
		amount Money
		fixed  string
		short  string
	}{
		{Rupees(25), "25.00", "25"},
		{Rupees(75.5), "75.50", "75.5"},
		{Rupees(120.75), "120.75", "120.75"},
		{Rupees(0.05), "0.05", "0.05"},
	}
	for _, tt := range tests {
		if got := tt.amount.String(); got != tt.fixed {
			t.Errorf("String() = %q, want %q", got, tt.fixed)
		}
		if got := tt.amount.Short(); got != tt.short {
			t.Errorf("Short() = %q, want %q", got, tt.short)
		}
	}
}

func TestMoneyJSONUsesRupees(t *testing.T) {
	var item Item
	if err := json.Unmarshal([]byte(`{"id":"x","price":89}`), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if item.Price != 8900 {
		t.Fatalf("expected 8900 paise, got %d", item.Price)
	}
	if err := json.Unmarshal([]byte(`{"price":"free"}`), &item); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}
