package services

import "testing"

func TestBuildExportColumns_EmptySelectionIncludesAll(t *testing.T) {
	updates := []ContractUpdate{{ID: "u7", Index: 1}}
	cols := BuildExportColumns(nil, updates)

	want := len(StaticColumnNames) + 2
	if len(cols) != want {
		t.Errorf("got %d columns, want %d (all statics + qty/sum pair)", len(cols), want)
	}
}

func TestBuildExportColumns_SelectionFilters(t *testing.T) {
	updates := []ContractUpdate{{ID: "u7", Index: 1}, {ID: "u8", Index: 2}}
	selection := map[string]bool{
		"include_description":                  true,
		"include_price":                        true,
		"include_updated_contract_quantity_u7": true,
		"include_updated_contract_sum_u8":      true,
	}

	cols := BuildExportColumns(selection, updates)
	keys := make([]string, 0, len(cols))
	for _, c := range cols {
		keys = append(keys, c.Key)
	}

	wantKeys := []string{
		"description",
		"price",
		"updated_contract_quantity_u7",
		"updated_contract_sum_u8",
	}
	if len(keys) != len(wantKeys) {
		t.Fatalf("columns = %v, want %v", keys, wantKeys)
	}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] {
			t.Errorf("column %d = %q, want %q", i, keys[i], wantKeys[i])
		}
	}
}

func TestBuildExportColumns_UpdateHeaderUsesTitleOrIndex(t *testing.T) {
	cols := BuildExportColumns(nil, []ContractUpdate{
		{ID: "a", Index: 1, Title: "April revision"},
		{ID: "b", Index: 2},
	})

	var headers []string
	for _, c := range cols {
		if updateIDsOf(c.Key) != nil {
			headers = append(headers, c.Header)
		}
	}
	want := []string{"April revision Qty", "April revision Sum", "Update 2 Qty", "Update 2 Sum"}
	if len(headers) != len(want) {
		t.Fatalf("dynamic headers = %v, want %v", headers, want)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("header %d = %q, want %q", i, headers[i], want[i])
		}
	}
}

func TestCellValue(t *testing.T) {
	it := BOQItem{ID: "item1", Description: "Concrete", Price: 1234.5, EstimatedQuantity: 2.5}
	values := BuildValueIndex([]UpdateValue{
		{ItemID: "item1", UpdateID: "u1", Quantity: 3, Sum: 3703.5},
	})

	tests := []struct {
		name   string
		col    ExportColumn
		expect string
	}{
		{"text field", ExportColumn{Key: "description"}, "Concrete"},
		{"money field", ExportColumn{Key: "price", Money: true}, "₪1,234.50"},
		{"qty field", ExportColumn{Key: "estimated_quantity", Qty: true}, "2.5"},
		{"update quantity", ExportColumn{Key: UpdateQuantityColumn("u1")}, "3"},
		{"update sum", ExportColumn{Key: UpdateSumColumn("u1")}, "₪3,703.50"},
		{"missing update value renders empty", ExportColumn{Key: UpdateQuantityColumn("u9")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CellValue(tt.col, it, values)
			if got != tt.expect {
				t.Errorf("CellValue(%s) = %q, want %q", tt.col.Key, got, tt.expect)
			}
		})
	}
}

func TestTotalCell(t *testing.T) {
	totals := Totals{
		TotalEstimate: 500,
		UpdateSums:    map[string]float64{"u1": 75},
	}

	if got := TotalCell(ExportColumn{Key: "total_estimate"}, totals); got != "₪500.00" {
		t.Errorf("total_estimate cell = %q", got)
	}
	if got := TotalCell(ExportColumn{Key: UpdateSumColumn("u1")}, totals); got != "₪75.00" {
		t.Errorf("update sum cell = %q", got)
	}
	if got := TotalCell(ExportColumn{Key: "description"}, totals); got != "" {
		t.Errorf("non-aggregable column cell = %q, want empty", got)
	}
	if got := TotalCell(ExportColumn{Key: UpdateQuantityColumn("u1")}, totals); got != "" {
		t.Errorf("update quantity column does not aggregate, got %q", got)
	}
}
