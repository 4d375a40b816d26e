package services

import (
	"fmt"
	"strings"
)

// FormatILS formats an amount in New Israeli Shekel notation with standard
// 3-digit grouping and exactly 2 decimal places, e.g. ₪1,234,567.89.
func FormatILS(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := "₪" + groupThousands(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every 3 digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 3 {
		result = remaining[len(remaining)-3:] + "," + result
		remaining = remaining[:len(remaining)-3]
	}
	return remaining + "," + result
}

// FormatQty formats a quantity with up to 2 decimal places, dropping
// trailing zeros for whole numbers.
func FormatQty(qty float64) string {
	s := fmt.Sprintf("%.2f", qty)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
