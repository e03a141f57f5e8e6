package catalog

import (
	"encoding/json"
	"fmt"
	"math"
)

// Money is an amount in paise. Prices are kept integral so cart totals are exact.
type Money int64

// Rupees converts a decimal rupee amount to Money, rounding to the nearest paisa.
func Rupees(r float64) Money {
	return Money(math.Round(r * 100))
}

// String renders the amount with two decimals, e.g. "65.00".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// Short renders the amount without trailing zeros, e.g. "25", "75.5", "120.75".
func (m Money) Short() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	whole, frac := int64(m)/100, int64(m)%100
	switch {
	case frac == 0:
		return fmt.Sprintf("%s%d", sign, whole)
	case frac%10 == 0:
		return fmt.Sprintf("%s%d.%d", sign, whole, frac/10)
	default:
		return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
	}
}

// Float returns the amount in rupees.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// MarshalJSON encodes the amount as a rupee number.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Float())
}

// UnmarshalJSON decodes a rupee number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("catalog: price must be a number: %w", err)
	}
	*m = Rupees(f)
	return nil
}
