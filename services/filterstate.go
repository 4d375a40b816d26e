package services

import "strconv"

// UpdateFilter holds the two filter strings for one contract update's
// dynamic columns.
type UpdateFilter struct {
	Quantity string `json:"quantity"`
	Sum      string `json:"sum"`
}

// FilterState is the complete set of active filters for a table page:
// per-field filter strings, per-field dropdown allow-lists, and per-update
// quantity/sum filters keyed by contract update ID.
type FilterState struct {
	Fields    map[string]string       `json:"fields"`
	Dropdowns map[string][]string     `json:"dropdowns"`
	Updates   map[string]UpdateFilter `json:"updates"`
}

// NewFilterState returns an empty filter state with all maps allocated.
func NewFilterState() FilterState {
	return FilterState{
		Fields:    map[string]string{},
		Dropdowns: map[string][]string{},
		Updates:   map[string]UpdateFilter{},
	}
}

// IsEmpty reports whether no filter is active at all.
func (f FilterState) IsEmpty() bool {
	for _, v := range f.Fields {
		if v != "" {
			return false
		}
	}
	for _, vals := range f.Dropdowns {
		if len(vals) > 0 {
			return false
		}
	}
	for _, uf := range f.Updates {
		if uf.Quantity != "" || uf.Sum != "" {
			return false
		}
	}
	return true
}

// fieldAsString stringifies a field for dropdown membership tests. Numeric
// fields use the shortest exact representation so "5" matches 5.0.
func fieldAsString(it BOQItem, name string) string {
	if s, ok := it.TextField(name); ok {
		return s
	}
	if v, ok := it.NumericField(name); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// MatchesFilters reports whether an item passes every active filter: text
// substring filters, numeric operator filters, dropdown allow-lists and the
// per-update quantity/sum filters. All predicates are ANDed.
//
// Update predicates join through the value index. An update with both filter
// strings empty is skipped outright. When either string is non-empty and the
// item has no value record for that update, the item fails - missing joined
// data is not treated as zero here, unlike aggregation.
func MatchesFilters(it BOQItem, values UpdateValueIndex, f FilterState) bool {
	for name, filter := range f.Fields {
		if filter == "" {
			continue
		}
		if s, ok := it.TextField(name); ok {
			if !MatchTextFilter(filter, s) {
				return false
			}
			continue
		}
		if v, ok := it.NumericField(name); ok {
			if !MatchNumericFilter(filter, v) {
				return false
			}
		}
	}

	for name, allowed := range f.Dropdowns {
		if !MatchDropdownFilter(allowed, fieldAsString(it, name)) {
			return false
		}
	}

	for updateID, uf := range f.Updates {
		if uf.Quantity == "" && uf.Sum == "" {
			continue
		}
		val, ok := values.Lookup(it.ID, updateID)
		if !ok {
			return false
		}
		if !MatchNumericFilter(uf.Quantity, val.Quantity) {
			return false
		}
		if !MatchNumericFilter(uf.Sum, val.Sum) {
			return false
		}
	}

	return true
}

// ApplyFilters returns the items passing MatchesFilters, preserving input
// order. The input slice is never mutated.
func ApplyFilters(items []BOQItem, values UpdateValueIndex, f FilterState) []BOQItem {
	filtered := make([]BOQItem, 0, len(items))
	for _, it := range items {
		if MatchesFilters(it, values, f) {
			filtered = append(filtered, it)
		}
	}
	return filtered
}
