package airquality

import (
	"math"
	"strconv"
)

// Round rounds v to the given number of decimal places using the exact binary
// value of v and ties-to-even, so 2.675 rounds to 2.67 and 0.125 to 0.12.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
