package services

import (
	"strconv"
	"strings"
)

// numericPrefixes in priority order. ">=" and "<=" must be checked before
// ">" and "<" or the longer operators would never match.
var numericPrefixes = []string{">=", "<=", ">", "<", "="}

// MatchNumericFilter tests a numeric field value against a filter string.
// The filter may start with one of >=, <=, >, < or =; the remainder is parsed
// as a float and compared. A bare number means exact equality. An empty
// filter matches everything; a malformed number matches nothing.
//
// Equality (= and bare numbers) is literal float64 equality. Filters on
// non-integer values can miss because of float precision; that behavior is
// kept as-is because saved filters depend on it.
func MatchNumericFilter(filter string, value float64) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}

	for _, op := range numericPrefixes {
		if !strings.HasPrefix(filter, op) {
			continue
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(filter[len(op):]), 64)
		if err != nil {
			return false
		}
		switch op {
		case ">=":
			return value >= threshold
		case "<=":
			return value <= threshold
		case ">":
			return value > threshold
		case "<":
			return value < threshold
		default:
			return value == threshold
		}
	}

	threshold, err := strconv.ParseFloat(filter, 64)
	if err != nil {
		return false
	}
	return value == threshold
}

// MatchTextFilter reports whether a field value contains the filter string,
// case-insensitively. An empty filter matches everything, including null
// fields (which read as "").
func MatchTextFilter(filter, value string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

// MatchDropdownFilter reports whether the stringified field value is one of
// the allowed values. An empty allow-list means no dropdown filter is active.
func MatchDropdownFilter(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
