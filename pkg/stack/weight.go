package stack

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Units written by Instruments in the Self Weight column.
const (
	UnitSeconds      = "s"
	UnitMilliseconds = "ms"
)

// ParseSelfWeight converts a "<number> <unit>" token such as "827.00 ms" or
// "4.77 s" into milliseconds.
func ParseSelfWeight(token string) (float64, error) {
	parts := strings.Split(token, " ")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrWeightFormat, token)
	}

	weight, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return 0, fmt.Errorf("%w: %q", ErrWeightNumber, parts[0])
	}

	switch parts[1] {
	case UnitSeconds:
		return weight * 1000, nil
	case UnitMilliseconds:
		return weight, nil
	default:
		return 0, fmt.Errorf("%w, got %q", ErrWeightUnit, parts[1])
	}
}
