package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeStore is an in-memory Store with per-call failure switches and a call
// log for asserting fetch ordering.
type fakeStore struct {
	items   []BOQItem
	updates []ContractUpdate
	values  []UpdateValue

	failUpdateItem bool
	failDeleteItem bool

	calls []string
}

func (s *fakeStore) FetchItems(ctx context.Context) ([]BOQItem, error) {
	s.calls = append(s.calls, "FetchItems")
	return append([]BOQItem{}, s.items...), nil
}

func (s *fakeStore) UpdateItem(ctx context.Context, id string, fields map[string]any) (BOQItem, error) {
	s.calls = append(s.calls, "UpdateItem:"+id)
	if s.failUpdateItem {
		return BOQItem{}, errors.New("storage unavailable")
	}
	for i, it := range s.items {
		if it.ID != id {
			continue
		}
		merged := it
		for name, value := range fields {
			merged.SetField(name, value)
		}
		merged.RecalcTotals()
		s.items[i] = merged
		return merged, nil
	}
	return BOQItem{}, errors.New("no such item")
}

func (s *fakeStore) DeleteItem(ctx context.Context, id string) error {
	s.calls = append(s.calls, "DeleteItem:"+id)
	if s.failDeleteItem {
		return errors.New("storage unavailable")
	}
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return errors.New("no such item")
}

func (s *fakeStore) FetchUpdates(ctx context.Context) ([]ContractUpdate, error) {
	s.calls = append(s.calls, "FetchUpdates")
	return append([]ContractUpdate{}, s.updates...), nil
}

func (s *fakeStore) CreateUpdate(ctx context.Context) (ContractUpdate, error) {
	s.calls = append(s.calls, "CreateUpdate")
	u := ContractUpdate{
		ID:    fmt.Sprintf("u%d", len(s.updates)+1),
		Index: len(s.updates) + 1,
	}
	s.updates = append(s.updates, u)
	return u, nil
}

func (s *fakeStore) DeleteUpdate(ctx context.Context, id string) error {
	s.calls = append(s.calls, "DeleteUpdate:"+id)
	for i, u := range s.updates {
		if u.ID == id {
			s.updates = append(s.updates[:i], s.updates[i+1:]...)
			break
		}
	}
	kept := s.values[:0]
	for _, v := range s.values {
		if v.UpdateID != id {
			kept = append(kept, v)
		}
	}
	s.values = kept
	return nil
}

func (s *fakeStore) FetchUpdateValues(ctx context.Context, updateID string) ([]UpdateValue, error) {
	s.calls = append(s.calls, "FetchUpdateValues:"+updateID)
	var out []UpdateValue
	for _, v := range s.values {
		if v.UpdateID == updateID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveUpdateValue(ctx context.Context, updateID, itemID string, quantity float64) error {
	s.calls = append(s.calls, "SaveUpdateValue:"+updateID+":"+itemID)
	var price float64
	for _, it := range s.items {
		if it.ID == itemID {
			price = it.Price
		}
	}
	for i, v := range s.values {
		if v.UpdateID == updateID && v.ItemID == itemID {
			s.values[i].Quantity = quantity
			s.values[i].Sum = quantity * price
			return nil
		}
	}
	s.values = append(s.values, UpdateValue{
		ItemID:   itemID,
		UpdateID: updateID,
		Quantity: quantity,
		Sum:      quantity * price,
	})
	return nil
}

func newLoadedController(t *testing.T, store *fakeStore) *TableController {
	t.Helper()
	c := NewTableController(store)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoad_NoValueFetchWithoutUpdates(t *testing.T) {
	store := &fakeStore{items: testItems()}
	newLoadedController(t, store)

	for _, call := range store.calls {
		if strings.HasPrefix(call, "FetchUpdateValues") {
			t.Fatalf("value fetch issued with an empty update list: %v", store.calls)
		}
	}
}

func TestLoad_ValuesFetchedAfterUpdates(t *testing.T) {
	store := &fakeStore{
		items:   testItems(),
		updates: []ContractUpdate{{ID: "u1", Index: 1}},
		values:  []UpdateValue{{ItemID: "item1", UpdateID: "u1", Quantity: 2, Sum: 20}},
	}
	c := newLoadedController(t, store)

	updatesAt, valuesAt := -1, -1
	for i, call := range store.calls {
		switch call {
		case "FetchUpdates":
			updatesAt = i
		case "FetchUpdateValues:u1":
			valuesAt = i
		}
	}
	if updatesAt < 0 || valuesAt < 0 || valuesAt < updatesAt {
		t.Fatalf("values must be fetched after the update list: %v", store.calls)
	}
	if _, ok := c.Values().Lookup("item1", "u1"); !ok {
		t.Error("loaded value index missing the stored value")
	}
	if _, ok := c.Filters().Updates["u1"]; !ok {
		t.Error("existing update should get a filter entry on load")
	}
}

func TestStartEdit_BufferPreFilled(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})

	if err := c.StartEdit("item1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	buf := c.EditBuffer("item1")
	if buf["description"] != "Excavation for foundations" {
		t.Errorf("buffer description = %v, want current row value", buf["description"])
	}
	if buf["price"] != 10.0 {
		t.Errorf("buffer price = %v, want 10", buf["price"])
	}
}

func TestEditThenCancel_LeavesRowUntouched(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})
	before := c.FilteredItems()[0]

	if err := c.StartEdit("item1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if err := c.UpdateEditBuffer("item1", "price", 999); err != nil {
		t.Fatalf("UpdateEditBuffer: %v", err)
	}
	c.CancelEdit("item1")

	after := c.FilteredItems()[0]
	if before != after {
		t.Errorf("cancel changed the row: before %+v, after %+v", before, after)
	}
	if c.EditBuffer("item1") != nil {
		t.Error("cancel should discard the buffer")
	}
}

func TestCommitEdit_PartialEditRecomputesTotals(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})

	if err := c.StartEdit("item1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	// Only the price changes; the quantity comes from the merged view.
	if err := c.UpdateEditBuffer("item1", "price", 20); err != nil {
		t.Fatalf("UpdateEditBuffer: %v", err)
	}
	if err := c.CommitEdit(context.Background(), "item1"); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}

	saved, _ := findByID(c.FilteredItems(), "item1")
	if saved.Price != 20 {
		t.Errorf("price = %v, want 20", saved.Price)
	}
	if saved.TotalContractSum != 100 { // 5 × 20, recomputed from the merge
		t.Errorf("total_contract_sum = %v, want 100", saved.TotalContractSum)
	}
	if c.EditBuffer("item1") != nil {
		t.Error("successful commit should close the edit")
	}
}

func TestCommitEdit_FailureKeepsBuffer(t *testing.T) {
	store := &fakeStore{items: testItems(), failUpdateItem: true}
	c := newLoadedController(t, store)

	if err := c.StartEdit("item1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if err := c.UpdateEditBuffer("item1", "price", 20); err != nil {
		t.Fatalf("UpdateEditBuffer: %v", err)
	}
	if err := c.CommitEdit(context.Background(), "item1"); err == nil {
		t.Fatal("expected commit to fail")
	}

	buf := c.EditBuffer("item1")
	if buf == nil {
		t.Fatal("failed commit must keep the buffer for retry")
	}
	if buf["price"] != 20 {
		t.Errorf("buffer price = %v, want the typed 20", buf["price"])
	}
	// Local row unchanged.
	it, _ := findByID(c.FilteredItems(), "item1")
	if it.Price != 10 {
		t.Errorf("row price = %v, want untouched 10", it.Price)
	}
	if c.IsSaving("item1") {
		t.Error("saving marker should clear after the call returns")
	}
}

func TestCommitEdit_WithoutStartEdit(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})
	if err := c.CommitEdit(context.Background(), "item1"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("err = %v, want ErrNotEditing", err)
	}
}

func TestUpdateEditBuffer_RejectsUnknownField(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})
	if err := c.StartEdit("item1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if err := c.UpdateEditBuffer("item1", "total_contract_sum", 1); !errors.Is(err, ErrUnknownField) {
		t.Errorf("derived totals must not be editable, got err = %v", err)
	}
}

func TestDeleteRow_ClearsEditState(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})

	if err := c.StartEdit("item2"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if err := c.DeleteRow(context.Background(), "item2"); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	if _, idx := findByID(c.FilteredItems(), "item2"); idx >= 0 {
		t.Error("deleted row still present")
	}
	if c.EditBuffer("item2") != nil {
		t.Error("deleting a mid-edit row must clear its edit state")
	}
}

func TestDeleteRow_FailureKeepsRow(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems(), failDeleteItem: true})
	if err := c.DeleteRow(context.Background(), "item1"); err == nil {
		t.Fatal("expected delete to fail")
	}
	if _, idx := findByID(c.FilteredItems(), "item1"); idx < 0 {
		t.Error("row should survive a failed delete")
	}
}

func TestCreateContractUpdate_Cascades(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})

	u, err := c.CreateContractUpdate(context.Background())
	if err != nil {
		t.Fatalf("CreateContractUpdate: %v", err)
	}

	if len(c.Updates()) != 1 {
		t.Fatalf("update list = %v, want the created update", c.Updates())
	}
	if _, ok := c.Filters().Updates[u.ID]; !ok {
		t.Error("new update should get a filter entry")
	}
	vis := c.Visibility()
	if !vis[UpdateQuantityColumn(u.ID)] || !vis[UpdateSumColumn(u.ID)] {
		t.Error("new update's columns should default to visible")
	}
}

func TestDeleteContractUpdate_CascadesInverse(t *testing.T) {
	store := &fakeStore{items: testItems()}
	c := newLoadedController(t, store)

	u1, _ := c.CreateContractUpdate(context.Background())
	u2, _ := c.CreateContractUpdate(context.Background())
	if err := c.SetUpdateQuantity(context.Background(), u1.ID, "item1", 7); err != nil {
		t.Fatalf("SetUpdateQuantity: %v", err)
	}
	if err := c.SetUpdateQuantity(context.Background(), u2.ID, "item1", 3); err != nil {
		t.Fatalf("SetUpdateQuantity: %v", err)
	}

	if err := c.DeleteContractUpdate(context.Background(), u1.ID); err != nil {
		t.Fatalf("DeleteContractUpdate: %v", err)
	}

	if _, ok := c.Values().Lookup("item1", u1.ID); ok {
		t.Error("deleted update's values should be dropped")
	}
	if _, ok := c.Values().Lookup("item1", u2.ID); !ok {
		t.Error("other update's values must survive")
	}
	vis := c.Visibility()
	if _, ok := vis[UpdateQuantityColumn(u1.ID)]; ok {
		t.Error("deleted update's columns should be pruned")
	}
	if !vis[UpdateQuantityColumn(u2.ID)] {
		t.Error("other update's columns must survive")
	}
}

func TestSetUpdateQuantity_SumComputedFromPrice(t *testing.T) {
	store := &fakeStore{items: testItems()}
	c := newLoadedController(t, store)
	u, _ := c.CreateContractUpdate(context.Background())

	if err := c.SetUpdateQuantity(context.Background(), u.ID, "item1", 4); err != nil {
		t.Fatalf("SetUpdateQuantity: %v", err)
	}
	val, ok := c.Values().Lookup("item1", u.ID)
	if !ok {
		t.Fatal("value missing after save")
	}
	if val.Sum != 40 { // 4 × price 10, computed store-side
		t.Errorf("sum = %v, want 40", val.Sum)
	}
}

func TestControllerTotals_FollowFilters(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})

	all := c.Totals()
	if all.TotalEstimate != 300 {
		t.Errorf("unfiltered TotalEstimate = %v, want 300", all.TotalEstimate)
	}

	c.SetFilter("structure", "A")
	filtered := c.Totals()
	if filtered.TotalEstimate != 100 {
		t.Errorf("filtered TotalEstimate = %v, want 100", filtered.TotalEstimate)
	}
}

func TestToggleAndResetColumns(t *testing.T) {
	c := newLoadedController(t, &fakeStore{items: testItems()})

	c.ToggleColumn("price")
	if c.Visibility()["price"] {
		t.Error("toggle should hide a visible column")
	}
	c.ResetColumnsToDefault()
	if !c.Visibility()["price"] {
		t.Error("reset should restore static columns")
	}
}

func findByID(items []BOQItem, id string) (BOQItem, int) {
	for i, it := range items {
		if it.ID == id {
			return it, i
		}
	}
	return BOQItem{}, -1
}

func TestFilters_ReturnsDetachedCopy(t *testing.T) {
	store := &fakeStore{items: testItems()}
	c := newLoadedController(t, store)
	c.SetFilter("description", "concrete")
	c.SetDropdownFilter("structure", []string{"B"})

	f := c.Filters()
	f.Fields["description"] = "plaster"
	f.Dropdowns["structure"][0] = "A"
	f.Updates["bogus"] = UpdateFilter{Quantity: ">1"}

	if got := c.Filters().Fields["description"]; got != "concrete" {
		t.Errorf("field filter = %q after mutating the copy, want concrete", got)
	}
	if got := c.Filters().Dropdowns["structure"][0]; got != "B" {
		t.Errorf("dropdown filter = %q after mutating the copy, want B", got)
	}
	if _, ok := c.Filters().Updates["bogus"]; ok {
		t.Error("update filter added through the copy leaked into the controller")
	}
	if got := ids(c.FilteredItems()); len(got) != 1 || got[0] != "item2" {
		t.Errorf("filtered rows = %v, want [item2]", got)
	}
}

func TestCommitEdit_RejectsTamperedBuffer(t *testing.T) {
	store := &fakeStore{items: testItems()}
	c := newLoadedController(t, store)
	if err := c.StartEdit("item1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	// A buffer entry that bypassed UpdateEditBuffer's field check must not
	// reach the store.
	c.edits["item1"]["total_contract_sum"] = 9999.0

	err := c.CommitEdit(context.Background(), "item1")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("CommitEdit error = %v, want ErrUnknownField", err)
	}
	for _, call := range store.calls {
		if strings.HasPrefix(call, "UpdateItem") {
			t.Fatalf("store write issued for a rejected buffer: %v", store.calls)
		}
	}
}
