package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// Store is the persistence port the table controller drives. The handlers
// package provides a PocketBase-backed implementation; tests use fakes.
type Store interface {
	FetchItems(ctx context.Context) ([]BOQItem, error)
	UpdateItem(ctx context.Context, id string, fields map[string]any) (BOQItem, error)
	DeleteItem(ctx context.Context, id string) error

	FetchUpdates(ctx context.Context) ([]ContractUpdate, error)
	CreateUpdate(ctx context.Context) (ContractUpdate, error)
	DeleteUpdate(ctx context.Context, id string) error

	FetchUpdateValues(ctx context.Context, updateID string) ([]UpdateValue, error)
	SaveUpdateValue(ctx context.Context, updateID, itemID string, quantity float64) error
}

var (
	// ErrRowNotFound is returned when an operation names an item the
	// controller does not hold.
	ErrRowNotFound = errors.New("row not found")
	// ErrNotEditing is returned when a commit or buffer write targets a row
	// with no open edit.
	ErrNotEditing = errors.New("row is not being edited")
	// ErrUnknownField is returned when an edit buffer write names a field
	// that is not editable.
	ErrUnknownField = errors.New("unknown editable field")
)

// EditableFieldNames lists the fields a user can change directly. Derived
// totals are excluded; they are recomputed on every commit.
var EditableFieldNames = append(append([]string{}, TextFieldNames...),
	"price",
	"original_contract_quantity",
	"estimated_quantity",
	"quantity_submitted",
	"internal_quantity",
	"approved_signed_quantity",
)

// TableController owns the state of one editable item table: the loaded
// items, the contract update list and its joined values, the active filters
// and column visibility, and per-row edit buffers. All mutation of that state
// goes through controller methods.
//
// The controller follows the single-threaded UI model it mirrors: it is not
// safe for concurrent use, callers serialize access.
type TableController struct {
	store Store

	items   []BOQItem
	updates []ContractUpdate
	values  UpdateValueIndex

	filters    FilterState
	visibility ColumnVisibility

	edits    map[string]map[string]any
	saving   map[string]bool
	deleting map[string]bool
}

// NewTableController creates a controller around a store. Call Load before
// reading snapshots.
func NewTableController(store Store) *TableController {
	return &TableController{
		store:      store,
		values:     UpdateValueIndex{},
		filters:    NewFilterState(),
		visibility: DefaultColumnVisibility(),
		edits:      map[string]map[string]any{},
		saving:     map[string]bool{},
		deleting:   map[string]bool{},
	}
}

// Load fetches items, then the contract update list, then the joined values.
// Values are only fetched once the update list is known and non-empty, so a
// value fetch can never race ahead of the updates it belongs to.
func (c *TableController) Load(ctx context.Context) error {
	items, err := c.store.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch items: %w", err)
	}
	updates, err := c.store.FetchUpdates(ctx)
	if err != nil {
		return fmt.Errorf("fetch contract updates: %w", err)
	}
	c.items = items
	c.updates = updates

	EnsureUpdateFilters(&c.filters, c.updates)
	MergeUpdateColumns(c.visibility, c.updates)

	return c.refreshValues(ctx)
}

// refreshValues rebuilds the value index from storage. Skipped while no
// contract updates exist.
func (c *TableController) refreshValues(ctx context.Context) error {
	c.values = UpdateValueIndex{}
	if len(c.updates) == 0 {
		return nil
	}
	for _, u := range c.updates {
		vals, err := c.store.FetchUpdateValues(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("fetch values for update %s: %w", u.ID, err)
		}
		for _, v := range vals {
			c.values[ValueKey{ItemID: v.ItemID, UpdateID: v.UpdateID}] = v
		}
	}
	return nil
}

// ── Derived snapshots ────────────────────────────────────────────────────

// FilteredItems returns the items passing the current filters, recomputed
// from scratch on every call.
func (c *TableController) FilteredItems() []BOQItem {
	return ApplyFilters(c.items, c.values, c.filters)
}

// Totals aggregates over the currently filtered set.
func (c *TableController) Totals() Totals {
	return CalcTotals(c.FilteredItems(), c.updates, c.values)
}

// Visibility returns a copy of the current column visibility map.
func (c *TableController) Visibility() ColumnVisibility {
	vis := make(ColumnVisibility, len(c.visibility))
	for k, v := range c.visibility {
		vis[k] = v
	}
	return vis
}

// Updates returns the current contract update list.
func (c *TableController) Updates() []ContractUpdate {
	return append([]ContractUpdate{}, c.updates...)
}

// Values returns the joined value index.
func (c *TableController) Values() UpdateValueIndex {
	return c.values
}

// IsSaving reports whether a save is in flight for the row.
func (c *TableController) IsSaving(rowID string) bool { return c.saving[rowID] }

// IsDeleting reports whether a delete is in flight for the row.
func (c *TableController) IsDeleting(rowID string) bool { return c.deleting[rowID] }

// ── Filters and columns ──────────────────────────────────────────────────

// SetFilter sets the filter string for a base field.
func (c *TableController) SetFilter(field, value string) {
	c.filters.Fields[field] = value
}

// SetDropdownFilter sets the allowed values for a field's dropdown filter.
// An empty slice clears it.
func (c *TableController) SetDropdownFilter(field string, values []string) {
	if len(values) == 0 {
		delete(c.filters.Dropdowns, field)
		return
	}
	c.filters.Dropdowns[field] = values
}

// SetUpdateFilter sets the quantity/sum filter pair for a contract update.
func (c *TableController) SetUpdateFilter(updateID string, f UpdateFilter) {
	c.filters.Updates[updateID] = f
}

// Filters returns a copy of the current filter state. Mutating the copy does
// not touch the controller; use the Set* methods for that.
func (c *TableController) Filters() FilterState {
	f := NewFilterState()
	for k, v := range c.filters.Fields {
		f.Fields[k] = v
	}
	for k, v := range c.filters.Dropdowns {
		f.Dropdowns[k] = append([]string(nil), v...)
	}
	for k, v := range c.filters.Updates {
		f.Updates[k] = v
	}
	return f
}

// ToggleColumn flips a column's visibility.
func (c *TableController) ToggleColumn(key string) {
	c.visibility[key] = !c.visibility[key]
}

// ResetColumnsToDefault discards column customization: statics visible,
// dynamic columns re-merged for every existing update.
func (c *TableController) ResetColumnsToDefault() {
	c.visibility = ResetColumns(c.updates)
}

// ── Row editing ──────────────────────────────────────────────────────────

// StartEdit opens an edit on a row. The buffer starts pre-filled from the
// row's current values, so untouched fields submit unchanged.
func (c *TableController) StartEdit(rowID string) error {
	it, idx := c.findItem(rowID)
	if idx < 0 {
		return ErrRowNotFound
	}
	buf := make(map[string]any, len(EditableFieldNames))
	for _, name := range EditableFieldNames {
		if s, ok := it.TextField(name); ok {
			buf[name] = s
		} else if v, ok := it.NumericField(name); ok {
			buf[name] = v
		}
	}
	c.edits[rowID] = buf
	return nil
}

// UpdateEditBuffer writes one field into a row's open edit buffer.
func (c *TableController) UpdateEditBuffer(rowID, field string, value any) error {
	buf, ok := c.edits[rowID]
	if !ok {
		return ErrNotEditing
	}
	if !IsEditableField(field) {
		return ErrUnknownField
	}
	buf[field] = value
	return nil
}

// EditBuffer returns the open buffer for a row, or nil.
func (c *TableController) EditBuffer(rowID string) map[string]any {
	return c.edits[rowID]
}

// CommitEdit merges the edit buffer over the row, recomputes every derived
// total from the merged view, and saves. On success the server's returned
// row replaces the local one and the edit closes. On failure the buffer is
// kept so the user can retry without retyping.
func (c *TableController) CommitEdit(ctx context.Context, rowID string) error {
	buf, ok := c.edits[rowID]
	if !ok {
		return ErrNotEditing
	}
	base, idx := c.findItem(rowID)
	if idx < 0 {
		return ErrRowNotFound
	}

	merged := base
	for field, value := range buf {
		if err := merged.SetField(field, value); err != nil {
			return err
		}
	}
	merged.RecalcTotals()

	c.saving[rowID] = true
	saved, err := c.store.UpdateItem(ctx, rowID, ItemFieldMap(merged))
	delete(c.saving, rowID)
	if err != nil {
		return fmt.Errorf("save item %s: %w", rowID, err)
	}

	c.items[idx] = saved
	delete(c.edits, rowID)
	return nil
}

// CancelEdit discards a row's edit buffer without saving.
func (c *TableController) CancelEdit(rowID string) {
	delete(c.edits, rowID)
}

// DeleteRow deletes a row through the store and drops it from local state.
// Callers gate this behind their own confirmation step; there is no undo.
// An open edit on the row is discarded too.
func (c *TableController) DeleteRow(ctx context.Context, rowID string) error {
	_, idx := c.findItem(rowID)
	if idx < 0 {
		return ErrRowNotFound
	}

	c.deleting[rowID] = true
	err := c.store.DeleteItem(ctx, rowID)
	delete(c.deleting, rowID)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", rowID, err)
	}

	c.items = append(c.items[:idx], c.items[idx+1:]...)
	delete(c.edits, rowID)
	return nil
}

// ── Contract update lifecycle ────────────────────────────────────────────

// CreateContractUpdate creates a revision and cascades: append it to the
// list, refresh the joined values, and merge default filter and column
// entries for it (without overwriting anything the user already set).
func (c *TableController) CreateContractUpdate(ctx context.Context) (ContractUpdate, error) {
	u, err := c.store.CreateUpdate(ctx)
	if err != nil {
		return ContractUpdate{}, fmt.Errorf("create contract update: %w", err)
	}
	c.updates = append(c.updates, u)

	EnsureUpdateFilters(&c.filters, c.updates)
	MergeUpdateColumns(c.visibility, c.updates)

	if err := c.refreshValues(ctx); err != nil {
		return u, err
	}
	return u, nil
}

// DeleteContractUpdate deletes a revision and cascades the inverse: its
// values leave the index and its filter and column entries are pruned.
// No other update's data moves.
func (c *TableController) DeleteContractUpdate(ctx context.Context, updateID string) error {
	if err := c.store.DeleteUpdate(ctx, updateID); err != nil {
		return fmt.Errorf("delete contract update %s: %w", updateID, err)
	}
	for i, u := range c.updates {
		if u.ID == updateID {
			c.updates = append(c.updates[:i], c.updates[i+1:]...)
			break
		}
	}
	c.values.DropUpdate(updateID)
	PruneUpdate(c.visibility, &c.filters, updateID)
	return nil
}

// SetUpdateQuantity persists a revised quantity for one (item, update) pair
// and refreshes the joined values; the sum comes back server-computed from
// quantity × the item's current price.
func (c *TableController) SetUpdateQuantity(ctx context.Context, updateID, itemID string, quantity float64) error {
	if err := c.store.SaveUpdateValue(ctx, updateID, itemID, quantity); err != nil {
		return fmt.Errorf("save update value: %w", err)
	}
	vals, err := c.store.FetchUpdateValues(ctx, updateID)
	if err != nil {
		return fmt.Errorf("refresh values for update %s: %w", updateID, err)
	}
	c.values.DropUpdate(updateID)
	for _, v := range vals {
		c.values[ValueKey{ItemID: v.ItemID, UpdateID: v.UpdateID}] = v
	}
	return nil
}

// ── Helpers ──────────────────────────────────────────────────────────────

func (c *TableController) findItem(rowID string) (BOQItem, int) {
	for i, it := range c.items {
		if it.ID == rowID {
			return it, i
		}
	}
	return BOQItem{}, -1
}

// IsEditableField reports whether a field name may appear in an edit.
func IsEditableField(name string) bool {
	for _, f := range EditableFieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// SetField writes one editable field, coercing loosely typed values the way
// form and JSON inputs arrive. Unknown fields return ErrUnknownField.
func (it *BOQItem) SetField(name string, value any) error {
	switch name {
	case "section_number":
		it.SectionNumber = cast.ToString(value)
	case "description":
		it.Description = cast.ToString(value)
	case "unit":
		it.Unit = cast.ToString(value)
	case "structure":
		it.Structure = cast.ToString(value)
	case "system_name":
		it.SystemName = cast.ToString(value)
	case "subsection":
		it.Subsection = cast.ToString(value)
	case "contractor":
		it.Contractor = cast.ToString(value)
	case "notes":
		it.Notes = cast.ToString(value)
	case "price":
		it.Price = cast.ToFloat64(value)
	case "original_contract_quantity":
		it.OriginalContractQuantity = cast.ToFloat64(value)
	case "estimated_quantity":
		it.EstimatedQuantity = cast.ToFloat64(value)
	case "quantity_submitted":
		it.QuantitySubmitted = cast.ToFloat64(value)
	case "internal_quantity":
		it.InternalQuantity = cast.ToFloat64(value)
	case "approved_signed_quantity":
		it.ApprovedSignedQuantity = cast.ToFloat64(value)
	default:
		return ErrUnknownField
	}
	return nil
}

// ItemFieldMap flattens an item into the field map sent to the store,
// derived totals included.
func ItemFieldMap(it BOQItem) map[string]any {
	return map[string]any{
		"section_number":             it.SectionNumber,
		"description":                it.Description,
		"unit":                       it.Unit,
		"structure":                  it.Structure,
		"system_name":                it.SystemName,
		"subsection":                 it.Subsection,
		"contractor":                 it.Contractor,
		"notes":                      it.Notes,
		"price":                      it.Price,
		"original_contract_quantity": it.OriginalContractQuantity,
		"estimated_quantity":         it.EstimatedQuantity,
		"quantity_submitted":         it.QuantitySubmitted,
		"internal_quantity":          it.InternalQuantity,
		"approved_signed_quantity":   it.ApprovedSignedQuantity,
		"total_contract_sum":         it.TotalContractSum,
		"total_estimate":             it.TotalEstimate,
		"total_submitted":            it.TotalSubmitted,
		"internal_total":             it.InternalTotal,
		"approved_signed_total":      it.ApprovedSignedTotal,
	}
}
