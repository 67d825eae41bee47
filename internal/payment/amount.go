package payment

import (
	"fmt"
	"strconv"
	"strings"
)

// Amounts are decimal strings with two fraction digits ("80.00"). All
// arithmetic happens in integer cents; floating point never touches money.

// NormalizeAmount validates a decimal amount string and normalizes it to
// two fraction digits. "" is treated as zero.
func NormalizeAmount(amount string) (string, error) {
	cents, err := parseCents(amount)
	if err != nil {
		return "", err
	}
	return formatCents(cents), nil
}

// ApplyDiscount reduces amount by percent (0..100), rounding down to the
// nearest cent.
func ApplyDiscount(amount string, percent int) (string, error) {
	if percent < 0 || percent > 100 {
		return "", fmt.Errorf("invalid discount percent %d", percent)
	}
	cents, err := parseCents(amount)
	if err != nil {
		return "", err
	}
	discounted := cents * int64(100-percent) / 100
	return formatCents(discounted), nil
}

func parseCents(amount string) (int64, error) {
	if amount == "" {
		return 0, nil
	}
	whole, frac, _ := strings.Cut(amount, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	cents := units * 100
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q", amount)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid amount %q", amount)
		}
		cents += f
	}
	return cents, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
