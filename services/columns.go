package services

// ColumnVisibility maps a column key to whether the column is shown.
// Static keys are field names; dynamic keys come from UpdateQuantityColumn
// and UpdateSumColumn.
type ColumnVisibility map[string]bool

// StaticColumnNames lists every fixed column in display order.
var StaticColumnNames = append(append([]string{}, TextFieldNames...), NumericFieldNames...)

// UpdateQuantityColumn returns the column key for a contract update's
// revised quantity.
func UpdateQuantityColumn(updateID string) string {
	return "updated_contract_quantity_" + updateID
}

// UpdateSumColumn returns the column key for a contract update's revised sum.
func UpdateSumColumn(updateID string) string {
	return "updated_contract_sum_" + updateID
}

// DefaultColumnVisibility returns all static columns visible.
func DefaultColumnVisibility() ColumnVisibility {
	vis := make(ColumnVisibility, len(StaticColumnNames))
	for _, name := range StaticColumnNames {
		vis[name] = true
	}
	return vis
}

// MergeUpdateColumns inserts the two column keys for every contract update,
// defaulting to visible, without touching keys that already exist. Running it
// again is a no-op, so a user's hidden columns survive refreshes.
func MergeUpdateColumns(vis ColumnVisibility, updates []ContractUpdate) {
	for _, u := range updates {
		for _, key := range []string{UpdateQuantityColumn(u.ID), UpdateSumColumn(u.ID)} {
			if _, ok := vis[key]; !ok {
				vis[key] = true
			}
		}
	}
}

// MergeStaticColumns inserts any missing static columns as visible, keeping
// existing entries. Used when loading persisted preferences that predate a
// new column.
func MergeStaticColumns(vis ColumnVisibility) {
	for _, name := range StaticColumnNames {
		if _, ok := vis[name]; !ok {
			vis[name] = true
		}
	}
}

// PruneUpdate removes a deleted contract update's column keys and filter
// entry. Other updates' keys are untouched; nothing is renumbered.
func PruneUpdate(vis ColumnVisibility, f *FilterState, updateID string) {
	delete(vis, UpdateQuantityColumn(updateID))
	delete(vis, UpdateSumColumn(updateID))
	if f != nil && f.Updates != nil {
		delete(f.Updates, updateID)
	}
}

// PruneStaleUpdateColumns drops dynamic column keys that reference a
// contract update which no longer exists. Persisted visibility maps can
// outlive the updates they were saved against.
func PruneStaleUpdateColumns(vis ColumnVisibility, updates []ContractUpdate) {
	alive := make(map[string]bool, len(updates))
	for _, u := range updates {
		alive[u.ID] = true
	}
	for key := range vis {
		for _, ref := range updateIDsOf(key) {
			if !alive[ref.updateID] {
				delete(vis, key)
			}
		}
	}
}

// ResetColumns discards all customization: every static column becomes
// visible again and the merge step re-runs for each existing update, so
// dynamic columns also end up visible.
func ResetColumns(updates []ContractUpdate) ColumnVisibility {
	vis := DefaultColumnVisibility()
	MergeUpdateColumns(vis, updates)
	return vis
}

// EnsureUpdateFilters gives every existing contract update a (possibly empty)
// entry in the nested filter map and prunes entries for updates that no
// longer exist.
func EnsureUpdateFilters(f *FilterState, updates []ContractUpdate) {
	if f.Updates == nil {
		f.Updates = map[string]UpdateFilter{}
	}
	alive := make(map[string]bool, len(updates))
	for _, u := range updates {
		alive[u.ID] = true
		if _, ok := f.Updates[u.ID]; !ok {
			f.Updates[u.ID] = UpdateFilter{}
		}
	}
	for id := range f.Updates {
		if !alive[id] {
			delete(f.Updates, id)
		}
	}
}
