package sanitizer

import "math"

// RoundCents rounds an amount to two decimals, half away from zero.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
