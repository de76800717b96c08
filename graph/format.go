// ABOUTME: Fixed-width rendering of stat values as sent by the engine.
// ABOUTME: Values are rounded to two decimals and zero padded to two integer digits.
package graph

import (
	"math"
	"strconv"
)

// FormatStatValue renders v with two decimals, padding the integer part to two
// digits when |v| < 10. The sign stays in front of the padding:
// 3.4 -> "03.40", -0.2 -> "-00.20", 12.345 -> "12.35".
func FormatStatValue(v float64) string {
	// Scale before rounding so ties round half away from zero on the decimal
	// value rather than on its binary approximation.
	r := math.Round(v*100) / 100
	abs := math.Abs(r)

	s := strconv.FormatFloat(abs, 'f', 2, 64)
	if abs < 10 {
		s = "0" + s
	}
	if r < 0 {
		s = "-" + s
	}
	return s
}
