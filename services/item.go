// Package services holds the filtering, aggregation and export logic for
// BOQ line items. Everything here is pure: state comes in as arguments and
// results go out as return values, so the package has no PocketBase imports.
package services

// BOQItem is a single bill-of-quantities line item as loaded from storage.
// Total fields are derived (quantity × price) and persisted at write time;
// they are never recomputed on read.
type BOQItem struct {
	ID string

	SectionNumber string
	Description   string
	Unit          string
	Structure     string
	SystemName    string
	Subsection    string
	Contractor    string
	Notes         string

	Price                    float64
	OriginalContractQuantity float64
	EstimatedQuantity        float64
	QuantitySubmitted        float64
	InternalQuantity         float64
	ApprovedSignedQuantity   float64

	TotalContractSum    float64
	TotalEstimate       float64
	TotalSubmitted      float64
	InternalTotal       float64
	ApprovedSignedTotal float64
}

// TextFieldNames lists the substring-filterable fields in display order.
var TextFieldNames = []string{
	"section_number",
	"description",
	"unit",
	"structure",
	"system_name",
	"subsection",
	"contractor",
	"notes",
}

// NumericFieldNames lists the operator-filterable fields in display order.
var NumericFieldNames = []string{
	"price",
	"original_contract_quantity",
	"estimated_quantity",
	"quantity_submitted",
	"internal_quantity",
	"approved_signed_quantity",
	"total_contract_sum",
	"total_estimate",
	"total_submitted",
	"internal_total",
	"approved_signed_total",
}

// TotalFieldNames lists the aggregable derived fields.
var TotalFieldNames = []string{
	"total_contract_sum",
	"total_estimate",
	"total_submitted",
	"internal_total",
	"approved_signed_total",
}

// TextField returns the named text field. Missing fields read as the empty
// string, so a non-empty filter can never match them.
func (it BOQItem) TextField(name string) (string, bool) {
	switch name {
	case "section_number":
		return it.SectionNumber, true
	case "description":
		return it.Description, true
	case "unit":
		return it.Unit, true
	case "structure":
		return it.Structure, true
	case "system_name":
		return it.SystemName, true
	case "subsection":
		return it.Subsection, true
	case "contractor":
		return it.Contractor, true
	case "notes":
		return it.Notes, true
	}
	return "", false
}

// NumericField returns the named numeric field. Null values are stored as 0,
// so a missing quantity filters and aggregates as zero.
func (it BOQItem) NumericField(name string) (float64, bool) {
	switch name {
	case "price":
		return it.Price, true
	case "original_contract_quantity":
		return it.OriginalContractQuantity, true
	case "estimated_quantity":
		return it.EstimatedQuantity, true
	case "quantity_submitted":
		return it.QuantitySubmitted, true
	case "internal_quantity":
		return it.InternalQuantity, true
	case "approved_signed_quantity":
		return it.ApprovedSignedQuantity, true
	case "total_contract_sum":
		return it.TotalContractSum, true
	case "total_estimate":
		return it.TotalEstimate, true
	case "total_submitted":
		return it.TotalSubmitted, true
	case "internal_total":
		return it.InternalTotal, true
	case "approved_signed_total":
		return it.ApprovedSignedTotal, true
	}
	return 0, false
}

// RecalcTotals recomputes every derived total from the current quantities and
// price. Called on every save so a partial edit (price only, say) still
// refreshes all dependent sums.
func (it *BOQItem) RecalcTotals() {
	it.TotalContractSum = it.OriginalContractQuantity * it.Price
	it.TotalEstimate = it.EstimatedQuantity * it.Price
	it.TotalSubmitted = it.QuantitySubmitted * it.Price
	it.InternalTotal = it.InternalQuantity * it.Price
	it.ApprovedSignedTotal = it.ApprovedSignedQuantity * it.Price
}

// ContractUpdate is a contract-quantity revision. Updates have their own
// lifecycle and are joined to items through UpdateValue records.
type ContractUpdate struct {
	ID    string
	Index int
	Title string
}

// UpdateValue carries the revised quantity and sum for one (item, update)
// pair. Sum is quantity × the item's price at write time.
type UpdateValue struct {
	ItemID   string
	UpdateID string
	Quantity float64
	Sum      float64
}

// ValueKey identifies an UpdateValue by its (item, update) pair.
type ValueKey struct {
	ItemID   string
	UpdateID string
}

// UpdateValueIndex is the joined lookup used by filtering and aggregation.
// At most one value exists per key.
type UpdateValueIndex map[ValueKey]UpdateValue

// BuildValueIndex indexes a flat value list by (item, update). Later
// duplicates win, which preserves upsert semantics when a refresh overlaps
// an in-flight write.
func BuildValueIndex(values []UpdateValue) UpdateValueIndex {
	idx := make(UpdateValueIndex, len(values))
	for _, v := range values {
		idx[ValueKey{ItemID: v.ItemID, UpdateID: v.UpdateID}] = v
	}
	return idx
}

// Lookup returns the value for an (item, update) pair if one exists.
func (idx UpdateValueIndex) Lookup(itemID, updateID string) (UpdateValue, bool) {
	v, ok := idx[ValueKey{ItemID: itemID, UpdateID: updateID}]
	return v, ok
}

// DropUpdate removes every value belonging to the given contract update.
func (idx UpdateValueIndex) DropUpdate(updateID string) {
	for k := range idx {
		if k.UpdateID == updateID {
			delete(idx, k)
		}
	}
}
