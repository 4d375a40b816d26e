package services

import "testing"

func TestGeneratePDF_Basic(t *testing.T) {
	data := exportFixture()

	result, err := GeneratePDF(data)
	if err != nil {
		t.Fatalf("GeneratePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GeneratePDF() returned empty bytes")
	}
	// PDF files start with %PDF
	if len(result) > 4 && string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header, got %q", string(result[:5]))
	}
}

func TestGeneratePDF_EmptyItems(t *testing.T) {
	data := ExportData{
		Title:         "Empty",
		GeneratedDate: "2026-08-30",
		Columns:       BuildExportColumns(nil, nil),
		Totals:        CalcTotals(nil, nil, UpdateValueIndex{}),
	}

	result, err := GeneratePDF(data)
	if err != nil {
		t.Fatalf("GeneratePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GeneratePDF() returned empty bytes")
	}
}

func TestPDFColumnSizes(t *testing.T) {
	cols := []ExportColumn{
		{Key: "section_number"},
		{Key: "description"},
		{Key: "price"},
	}
	sizes := pdfColumnSizes(cols)
	if len(sizes) != 3 {
		t.Fatalf("got %d sizes, want 3", len(sizes))
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != maxPDFColumns {
		t.Errorf("sizes sum to %d, want %d", total, maxPDFColumns)
	}
	if sizes[1] <= sizes[0] {
		t.Errorf("description should get the leftover width: %v", sizes)
	}
}
