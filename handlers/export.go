package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

// exportPayload selects what goes into the generated file. Filters narrow the
// rows, Columns picks columns by their include_<key> selection entries, and an
// empty Columns map means everything.
type exportPayload struct {
	Format  string               `json:"format"`
	Title   string               `json:"title"`
	Columns map[string]bool      `json:"columns"`
	Filters services.FilterState `json:"filters"`
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// HandleExport returns a handler that generates an Excel or PDF file from the
// current filtered view and streams it back as an attachment.
func HandleExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		payload := exportPayload{Filters: services.NewFilterState()}
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if payload.Format != "xlsx" && payload.Format != "pdf" {
			return errorJSON(e, http.StatusBadRequest, "Format must be xlsx or pdf")
		}

		ctx := e.Request.Context()
		items, err := store.FetchItems(ctx)
		if err != nil {
			log.Printf("export: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load items")
		}
		updates, err := store.FetchUpdates(ctx)
		if err != nil {
			log.Printf("export: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load contract updates")
		}

		values := services.UpdateValueIndex{}
		if len(updates) > 0 {
			values, err = fetchAllUpdateValues(ctx, store, updates)
			if err != nil {
				log.Printf("export: %v", err)
				return errorJSON(e, http.StatusInternalServerError, "Failed to load update values")
			}
		}

		filtered := services.ApplyFilters(items, values, payload.Filters)
		columns := services.BuildExportColumns(payload.Columns, updates)
		if len(columns) == 0 {
			return errorJSON(e, http.StatusBadRequest, "No columns selected")
		}

		title := payload.Title
		if title == "" {
			title = "Bill of Quantities"
		}

		data := services.ExportData{
			Title:         title,
			GeneratedDate: time.Now().Format("02 Jan 2006"),
			Columns:       columns,
			Items:         filtered,
			Updates:       updates,
			Values:        values,
			Totals:        services.CalcTotals(filtered, updates, values),
		}

		switch payload.Format {
		case "xlsx":
			xlsxBytes, err := services.GenerateExcel(data)
			if err != nil {
				log.Printf("export: failed to generate Excel: %v", err)
				return errorJSON(e, http.StatusInternalServerError, "Failed to generate Excel file")
			}
			filename := fmt.Sprintf("BOQ_%s_%d.xlsx", sanitizeFilename(title), time.Now().Year())
			e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
			e.Response.Write(xlsxBytes)
			return nil
		default:
			pdfBytes, err := services.GeneratePDF(data)
			if err != nil {
				log.Printf("export: failed to generate PDF: %v", err)
				return errorJSON(e, http.StatusInternalServerError, "Failed to generate PDF file")
			}
			filename := fmt.Sprintf("BOQ_%s_%d.pdf", sanitizeFilename(title), time.Now().Year())
			e.Response.Header().Set("Content-Type", "application/pdf")
			e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
			e.Response.Write(pdfBytes)
			return nil
		}
	}
}
