package services

import "fmt"

// ExportColumn is one column of a generated file: its selection key, header
// label, and how its cells are rendered.
type ExportColumn struct {
	Key    string
	Header string
	Money  bool // render with FormatILS
	Qty    bool // render with FormatQty
}

// ExportData holds everything needed to generate an Excel or PDF file:
// the filtered items, the selected columns, the joined update values for
// dynamic columns, and the pre-computed totals row.
type ExportData struct {
	Title         string
	GeneratedDate string
	Columns       []ExportColumn
	Items         []BOQItem
	Updates       []ContractUpdate
	Values        UpdateValueIndex
	Totals        Totals
}

// staticColumnHeaders maps field names to export header labels.
var staticColumnHeaders = map[string]string{
	"section_number":             "Section",
	"description":                "Description",
	"unit":                       "Unit",
	"structure":                  "Structure",
	"system_name":                "System",
	"subsection":                 "Subsection",
	"contractor":                 "Contractor",
	"notes":                      "Notes",
	"price":                      "Price",
	"original_contract_quantity": "Contract Qty",
	"estimated_quantity":         "Estimated Qty",
	"quantity_submitted":         "Submitted Qty",
	"internal_quantity":          "Internal Qty",
	"approved_signed_quantity":   "Approved Qty",
	"total_contract_sum":         "Contract Sum",
	"total_estimate":             "Estimate Sum",
	"total_submitted":            "Submitted Sum",
	"internal_total":             "Internal Sum",
	"approved_signed_total":      "Approved Sum",
}

var moneyColumns = map[string]bool{
	"price":                 true,
	"total_contract_sum":    true,
	"total_estimate":        true,
	"total_submitted":       true,
	"internal_total":        true,
	"approved_signed_total": true,
}

var qtyColumns = map[string]bool{
	"original_contract_quantity": true,
	"estimated_quantity":         true,
	"quantity_submitted":         true,
	"internal_quantity":          true,
	"approved_signed_quantity":   true,
}

// BuildExportColumns resolves a flat include_<column> selection into ordered
// export columns: static columns first, then a quantity/sum pair per contract
// update in index order. A nil or empty selection includes everything.
func BuildExportColumns(selection map[string]bool, updates []ContractUpdate) []ExportColumn {
	include := func(key string) bool {
		if len(selection) == 0 {
			return true
		}
		return selection["include_"+key]
	}

	var cols []ExportColumn
	for _, name := range StaticColumnNames {
		if !include(name) {
			continue
		}
		cols = append(cols, ExportColumn{
			Key:    name,
			Header: staticColumnHeaders[name],
			Money:  moneyColumns[name],
			Qty:    qtyColumns[name],
		})
	}

	for _, u := range updates {
		label := u.Title
		if label == "" {
			label = fmt.Sprintf("Update %d", u.Index)
		}
		if include(UpdateQuantityColumn(u.ID)) {
			cols = append(cols, ExportColumn{
				Key:    UpdateQuantityColumn(u.ID),
				Header: label + " Qty",
				Qty:    true,
			})
		}
		if include(UpdateSumColumn(u.ID)) {
			cols = append(cols, ExportColumn{
				Key:    UpdateSumColumn(u.ID),
				Header: label + " Sum",
				Money:  true,
			})
		}
	}

	return cols
}

// CellValue renders one cell for an item under the given column. Dynamic
// update columns read through the value index; a missing value renders as an
// empty cell rather than 0 so absent revisions are visibly absent.
func CellValue(col ExportColumn, it BOQItem, values UpdateValueIndex) string {
	for _, u := range updateIDsOf(col.Key) {
		val, ok := values.Lookup(it.ID, u.updateID)
		if !ok {
			return ""
		}
		if u.sum {
			return FormatILS(val.Sum)
		}
		return FormatQty(val.Quantity)
	}

	if s, ok := it.TextField(col.Key); ok {
		return s
	}
	if v, ok := it.NumericField(col.Key); ok {
		if col.Money {
			return FormatILS(v)
		}
		return FormatQty(v)
	}
	return ""
}

// TotalCell renders the totals-row cell for a column, or "" for columns that
// do not aggregate.
func TotalCell(col ExportColumn, totals Totals) string {
	switch col.Key {
	case "total_contract_sum":
		return FormatILS(totals.TotalContractSum)
	case "total_estimate":
		return FormatILS(totals.TotalEstimate)
	case "total_submitted":
		return FormatILS(totals.TotalSubmitted)
	case "internal_total":
		return FormatILS(totals.InternalTotal)
	case "approved_signed_total":
		return FormatILS(totals.ApprovedSignedTotal)
	}
	for _, u := range updateIDsOf(col.Key) {
		if u.sum {
			return FormatILS(totals.UpdateSums[u.updateID])
		}
	}
	return ""
}

type updateColumnRef struct {
	updateID string
	sum      bool
}

// updateIDsOf parses a dynamic column key back into its update reference.
// Returns an empty slice for static keys.
func updateIDsOf(key string) []updateColumnRef {
	const qtyPrefix = "updated_contract_quantity_"
	const sumPrefix = "updated_contract_sum_"
	if len(key) > len(qtyPrefix) && key[:len(qtyPrefix)] == qtyPrefix {
		return []updateColumnRef{{updateID: key[len(qtyPrefix):]}}
	}
	if len(key) > len(sumPrefix) && key[:len(sumPrefix)] == sumPrefix {
		return []updateColumnRef{{updateID: key[len(sumPrefix):], sum: true}}
	}
	return nil
}
