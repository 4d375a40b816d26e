package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

// Store is the PocketBase-backed implementation of services.Store.
// Handlers share one instance per app; it holds no state of its own.
type Store struct {
	app *pocketbase.PocketBase
}

var _ services.Store = (*Store)(nil)

func NewStore(app *pocketbase.PocketBase) *Store {
	return &Store{app: app}
}

// recordToItem maps a boq_items record onto the service struct.
func recordToItem(r *core.Record) services.BOQItem {
	return services.BOQItem{
		ID:                       r.Id,
		SectionNumber:            r.GetString("section_number"),
		Description:              r.GetString("description"),
		Unit:                     r.GetString("unit"),
		Structure:                r.GetString("structure"),
		SystemName:               r.GetString("system_name"),
		Subsection:               r.GetString("subsection"),
		Contractor:               r.GetString("contractor"),
		Notes:                    r.GetString("notes"),
		Price:                    r.GetFloat("price"),
		OriginalContractQuantity: r.GetFloat("original_contract_quantity"),
		EstimatedQuantity:        r.GetFloat("estimated_quantity"),
		QuantitySubmitted:        r.GetFloat("quantity_submitted"),
		InternalQuantity:         r.GetFloat("internal_quantity"),
		ApprovedSignedQuantity:   r.GetFloat("approved_signed_quantity"),
		TotalContractSum:         r.GetFloat("total_contract_sum"),
		TotalEstimate:            r.GetFloat("total_estimate"),
		TotalSubmitted:           r.GetFloat("total_submitted"),
		InternalTotal:            r.GetFloat("internal_total"),
		ApprovedSignedTotal:      r.GetFloat("approved_signed_total"),
	}
}

func recordToUpdate(r *core.Record) services.ContractUpdate {
	return services.ContractUpdate{
		ID:    r.Id,
		Index: r.GetInt("update_index"),
		Title: r.GetString("title"),
	}
}

func recordToUpdateValue(r *core.Record) services.UpdateValue {
	return services.UpdateValue{
		ItemID:   r.GetString("item"),
		UpdateID: r.GetString("update"),
		Quantity: r.GetFloat("updated_quantity"),
		Sum:      r.GetFloat("updated_sum"),
	}
}

func (s *Store) FetchItems(ctx context.Context) ([]services.BOQItem, error) {
	records, err := s.app.FindAllRecords("boq_items")
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	items := make([]services.BOQItem, 0, len(records))
	for _, r := range records {
		items = append(items, recordToItem(r))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SectionNumber < items[j].SectionNumber
	})
	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, fields map[string]any) (services.BOQItem, error) {
	record, err := s.app.FindRecordById("boq_items", id)
	if err != nil {
		return services.BOQItem{}, services.ErrRowNotFound
	}

	for name, value := range fields {
		record.Set(name, value)
	}
	if err := s.app.Save(record); err != nil {
		return services.BOQItem{}, fmt.Errorf("save item %s: %w", id, err)
	}
	return recordToItem(record), nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("boq_items", id)
	if err != nil {
		return services.ErrRowNotFound
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func (s *Store) FetchUpdates(ctx context.Context) ([]services.ContractUpdate, error) {
	records, err := s.app.FindAllRecords("contract_updates")
	if err != nil {
		return nil, fmt.Errorf("fetch updates: %w", err)
	}

	updates := make([]services.ContractUpdate, 0, len(records))
	for _, r := range records {
		updates = append(updates, recordToUpdate(r))
	}
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Index < updates[j].Index
	})
	return updates, nil
}

func (s *Store) CreateUpdate(ctx context.Context) (services.ContractUpdate, error) {
	existing, err := s.FetchUpdates(ctx)
	if err != nil {
		return services.ContractUpdate{}, err
	}

	nextIndex := 1
	for _, u := range existing {
		if u.Index >= nextIndex {
			nextIndex = u.Index + 1
		}
	}

	col, err := s.app.FindCollectionByNameOrId("contract_updates")
	if err != nil {
		return services.ContractUpdate{}, fmt.Errorf("collection not found: %w", err)
	}

	record := core.NewRecord(col)
	record.Set("update_index", nextIndex)
	record.Set("title", fmt.Sprintf("Update %d", nextIndex))
	if err := s.app.Save(record); err != nil {
		return services.ContractUpdate{}, fmt.Errorf("create update: %w", err)
	}
	return recordToUpdate(record), nil
}

func (s *Store) DeleteUpdate(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("contract_updates", id)
	if err != nil {
		return services.ErrRowNotFound
	}
	// Relation fields on contract_update_values cascade, so the
	// per-item values go with the update.
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete update %s: %w", id, err)
	}
	return nil
}

func (s *Store) FetchUpdateValues(ctx context.Context, updateID string) ([]services.UpdateValue, error) {
	col, err := s.app.FindCollectionByNameOrId("contract_update_values")
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}

	records, err := s.app.FindRecordsByFilter(col, "update = {:updateId}", "item", 0, 0, map[string]any{"updateId": updateID})
	if err != nil {
		return nil, fmt.Errorf("fetch update values: %w", err)
	}

	values := make([]services.UpdateValue, 0, len(records))
	for _, r := range records {
		values = append(values, recordToUpdateValue(r))
	}
	return values, nil
}

// SaveUpdateValue upserts the (item, update) pair. The sum is derived
// server side from the item's current unit price so clients cannot
// submit an inconsistent pair.
func (s *Store) SaveUpdateValue(ctx context.Context, updateID, itemID string, quantity float64) error {
	itemRecord, err := s.app.FindRecordById("boq_items", itemID)
	if err != nil {
		return services.ErrRowNotFound
	}
	if _, err := s.app.FindRecordById("contract_updates", updateID); err != nil {
		return services.ErrRowNotFound
	}

	col, err := s.app.FindCollectionByNameOrId("contract_update_values")
	if err != nil {
		return fmt.Errorf("collection not found: %w", err)
	}

	existing, err := s.app.FindRecordsByFilter(col,
		"update = {:updateId} && item = {:itemId}", "", 1, 0,
		map[string]any{"updateId": updateID, "itemId": itemID})
	if err != nil {
		return fmt.Errorf("lookup update value: %w", err)
	}

	var record *core.Record
	if len(existing) > 0 {
		record = existing[0]
	} else {
		record = core.NewRecord(col)
		record.Set("item", itemID)
		record.Set("update", updateID)
	}
	record.Set("updated_quantity", quantity)
	record.Set("updated_sum", quantity*itemRecord.GetFloat("price"))

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save update value: %w", err)
	}
	return nil
}

// fetchAllUpdateValues loads the values of every contract update into a
// single index keyed by (item, update).
func fetchAllUpdateValues(ctx context.Context, store *Store, updates []services.ContractUpdate) (services.UpdateValueIndex, error) {
	var all []services.UpdateValue
	for _, u := range updates {
		values, err := store.FetchUpdateValues(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, values...)
	}
	return services.BuildValueIndex(all), nil
}
