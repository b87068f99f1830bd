// Package money holds monetary amounts as integer cents so that order
// totals never accumulate binary floating point drift. Amounts cross the
// JSON boundary as plain 2-decimal numbers (19.00, 9.50).
package money

import (
	"fmt"
	"math"
	"strconv"
)

// Cents is a fixed-point monetary amount with two decimal places.
type Cents int64

// FromFloat converts a JSON-style amount to cents, rounding half up.
func FromFloat(v float64) Cents {
	return Cents(math.Floor(v*100 + 0.5))
}

// Float returns the amount as a 2-decimal float for display.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// Mul scales the amount by an integer quantity.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// ApplyRate multiplies by a fractional rate (e.g. a 0.16 tax rate),
// rounding half up to the nearest cent.
func (c Cents) ApplyRate(rate float64) Cents {
	return Cents(math.Floor(float64(c)*rate + 0.5))
}

func (c Cents) String() string {
	return strconv.FormatFloat(c.Float(), 'f', 2, 64)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q", data)
	}
	if v < 0 {
		return fmt.Errorf("money: negative amount %q", data)
	}
	*c = FromFloat(v)
	return nil
}
