package allocation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ParsePercent converts a user-entered percentage string (e.g. "42.5")
// into a fraction. The input must parse to a finite number in [0,100];
// anything else is rejected so the caller keeps its prior value instead
// of partially applying bad input.
func ParsePercent(input string) (float64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("empty percentage")
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", input)
	}
	if d.IsNegative() || d.GreaterThan(oneHundred) {
		return 0, fmt.Errorf("percentage %q out of range [0,100]", input)
	}

	f, _ := d.Div(oneHundred).Float64()
	return f, nil
}
