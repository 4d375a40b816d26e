package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"boqtracker/testhelpers"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to hyphens", "Site BOQ 2026", "Site-BOQ-2026"},
		{"slashes", "a/b\\c", "a-b-c"},
		{"colons", "file:name", "file-name"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func doExport(t *testing.T, app *handlerTestApp, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := HandleExport(app.app)
	req := newJSONRequest(http.MethodPost, "/api/export", body)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app.app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestHandleExport_Excel(t *testing.T) {
	app := newHandlerTestApp(t)
	rec := doExport(t, app, `{"format":"xlsx","title":"Site BOQ"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Site-BOQ") {
		t.Errorf("content disposition = %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Site BOQ")
	if err != nil {
		t.Fatalf("sheet missing: %v", err)
	}
	// Title row, date row, blank, header row, 3 data rows, totals row
	if len(rows) < 8 {
		t.Errorf("expected at least 8 rows, got %d", len(rows))
	}
}

func TestHandleExport_PDF(t *testing.T) {
	app := newHandlerTestApp(t)
	rec := doExport(t, app, `{"format":"pdf"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF magic header")
	}
}

func TestHandleExport_AppliesFilters(t *testing.T) {
	app := newHandlerTestApp(t)
	rec := doExport(t, app, `{"format":"xlsx","title":"Filtered","filters":{"fields":{"section_number":"02"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid xlsx: %v", err)
	}
	defer f.Close()
	// Single surviving row plus totals
	cell, err := f.GetCellValue("Filtered", "A5")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if cell != "02.01.010" {
		t.Errorf("A5 = %q, want 02.01.010", cell)
	}
	next, _ := f.GetCellValue("Filtered", "A6")
	if next != "Totals" {
		t.Errorf("A6 = %q, want Totals", next)
	}
}

func TestHandleExport_ColumnSelectionWithUpdates(t *testing.T) {
	app := newHandlerTestApp(t)
	update := testhelpers.CreateTestUpdate(t, app.app, 1, "April revision")
	testhelpers.CreateTestUpdateValue(t, app.app, app.item1.Id, update.Id, 7, 70)

	rec := doExport(t, app, `{"format":"xlsx","title":"Cols","columns":{"include_section_number":true,"include_updated_contract_quantity_`+update.Id+`":true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid xlsx: %v", err)
	}
	defer f.Close()
	a4, _ := f.GetCellValue("Cols", "A4")
	b4, _ := f.GetCellValue("Cols", "B4")
	if a4 != "Section" {
		t.Errorf("A4 = %q, want Section", a4)
	}
	if b4 != "April revision Qty" {
		t.Errorf("B4 = %q, want 'April revision Qty'", b4)
	}
	c4, _ := f.GetCellValue("Cols", "C4")
	if c4 != "" {
		t.Errorf("expected only 2 columns, C4 = %q", c4)
	}
}

func TestHandleExport_EmptyColumnSelection(t *testing.T) {
	app := newHandlerTestApp(t)
	rec := doExport(t, app, `{"format":"xlsx","columns":{"include_notes":false}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "No columns selected") {
		t.Errorf("body = %q, want a no-columns error", rec.Body.String())
	}
}

func TestHandleExport_BadFormat(t *testing.T) {
	app := newHandlerTestApp(t)
	rec := doExport(t, app, `{"format":"csv"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
