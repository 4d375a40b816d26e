package handlers

import (
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

type entryResponse struct {
	ID          string  `json:"id"`
	SortOrder   int     `json:"sort_order"`
	Description string  `json:"description"`
	Count       float64 `json:"count"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Quantity    float64 `json:"quantity"`
}

func recordToEntry(r *core.Record) services.ConcentrationEntry {
	return services.ConcentrationEntry{
		ID:          r.Id,
		SheetID:     r.GetString("sheet"),
		SortOrder:   r.GetInt("sort_order"),
		Description: r.GetString("description"),
		Count:       r.GetFloat("count"),
		Length:      r.GetFloat("length"),
		Width:       r.GetFloat("width"),
		Height:      r.GetFloat("height"),
		Quantity:    r.GetFloat("quantity"),
	}
}

func toEntryResponse(en services.ConcentrationEntry) entryResponse {
	return entryResponse{
		ID:          en.ID,
		SortOrder:   en.SortOrder,
		Description: en.Description,
		Count:       en.Count,
		Length:      en.Length,
		Width:       en.Width,
		Height:      en.Height,
		Quantity:    en.Quantity,
	}
}

// findOrCreateSheet loads the item's concentration sheet, creating an empty
// one on first access so the client never deals with a missing sheet.
func findOrCreateSheet(app *pocketbase.PocketBase, itemID string) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId("concentration_sheets")
	if err != nil {
		return nil, err
	}

	existing, err := app.FindRecordsByFilter(col, "item = {:itemId}", "", 1, 0, map[string]any{"itemId": itemID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	record := core.NewRecord(col)
	record.Set("item", itemID)
	if err := app.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}

func fetchSheetEntries(app *pocketbase.PocketBase, sheetID string) ([]services.ConcentrationEntry, error) {
	col, err := app.FindCollectionByNameOrId("concentration_entries")
	if err != nil {
		return nil, err
	}
	records, err := app.FindRecordsByFilter(col, "sheet = {:sheetId}", "sort_order", 0, 0, map[string]any{"sheetId": sheetID})
	if err != nil {
		return nil, err
	}

	entries := make([]services.ConcentrationEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, recordToEntry(r))
	}
	return entries, nil
}

func sheetJSON(e *core.RequestEvent, app *pocketbase.PocketBase, sheet *core.Record) error {
	entries, err := fetchSheetEntries(app, sheet.Id)
	if err != nil {
		log.Printf("concentration: could not load entries for sheet %s: %v", sheet.Id, err)
		return errorJSON(e, http.StatusInternalServerError, "Failed to load concentration entries")
	}

	out := make([]entryResponse, 0, len(entries))
	for _, en := range entries {
		out = append(out, toEntryResponse(en))
	}
	return e.JSON(http.StatusOK, map[string]any{
		"sheet_id":       sheet.Id,
		"item_id":        sheet.GetString("item"),
		"drawing_number": sheet.GetString("drawing_number"),
		"description":    sheet.GetString("description"),
		"notes":          sheet.GetString("notes"),
		"entries":        out,
		"total":          services.SheetTotal(entries),
	})
}

// HandleConcentrationGet returns a handler that loads an item's concentration
// sheet with its entries and derived total, creating the sheet on first access.
func HandleConcentrationGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")
		if itemID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing item ID")
		}
		if _, err := app.FindRecordById("boq_items", itemID); err != nil {
			return errorJSON(e, http.StatusNotFound, "Item not found")
		}

		sheet, err := findOrCreateSheet(app, itemID)
		if err != nil {
			log.Printf("concentration_get: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load concentration sheet")
		}
		return sheetJSON(e, app, sheet)
	}
}

type sheetMetaPayload struct {
	DrawingNumber string `json:"drawing_number"`
	Description   string `json:"description"`
	Notes         string `json:"notes"`
}

// HandleConcentrationMetaSave returns a handler that saves the sheet header fields.
func HandleConcentrationMetaSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")
		if itemID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing item ID")
		}
		if _, err := app.FindRecordById("boq_items", itemID); err != nil {
			return errorJSON(e, http.StatusNotFound, "Item not found")
		}

		var payload sheetMetaPayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}

		sheet, err := findOrCreateSheet(app, itemID)
		if err != nil {
			log.Printf("concentration_meta: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load concentration sheet")
		}

		sheet.Set("drawing_number", payload.DrawingNumber)
		sheet.Set("description", payload.Description)
		sheet.Set("notes", payload.Notes)
		if err := app.Save(sheet); err != nil {
			log.Printf("concentration_meta: error saving sheet %s: %v", sheet.Id, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to save concentration sheet")
		}
		return sheetJSON(e, app, sheet)
	}
}

type entryPayload struct {
	Description string  `json:"description"`
	Count       float64 `json:"count"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

func (p entryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Count, validation.Min(0.0)),
		validation.Field(&p.Length, validation.Min(0.0)),
		validation.Field(&p.Width, validation.Min(0.0)),
		validation.Field(&p.Height, validation.Min(0.0)),
	)
}

// HandleConcentrationEntryCreate returns a handler that appends a measurement
// row to an item's sheet and returns the whole sheet recomputed.
func HandleConcentrationEntryCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")
		if itemID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing item ID")
		}
		if _, err := app.FindRecordById("boq_items", itemID); err != nil {
			return errorJSON(e, http.StatusNotFound, "Item not found")
		}

		var payload entryPayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		sheet, err := findOrCreateSheet(app, itemID)
		if err != nil {
			log.Printf("entry_create: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load concentration sheet")
		}

		existing, err := fetchSheetEntries(app, sheet.Id)
		if err != nil {
			log.Printf("entry_create: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load concentration entries")
		}

		col, err := app.FindCollectionByNameOrId("concentration_entries")
		if err != nil {
			log.Printf("entry_create: collection not found: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Internal error")
		}

		record := core.NewRecord(col)
		record.Set("sheet", sheet.Id)
		record.Set("sort_order", len(existing)+1)
		record.Set("description", payload.Description)
		record.Set("count", payload.Count)
		record.Set("length", payload.Length)
		record.Set("width", payload.Width)
		record.Set("height", payload.Height)
		record.Set("quantity", services.CalcEntryQuantity(payload.Count, payload.Length, payload.Width, payload.Height))
		if err := app.Save(record); err != nil {
			log.Printf("entry_create: error saving entry: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to create entry")
		}

		return sheetJSON(e, app, sheet)
	}
}

// HandleConcentrationEntryUpdate returns a handler that edits a measurement
// row and rederives its quantity.
func HandleConcentrationEntryUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		entryID := e.Request.PathValue("id")
		if entryID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing entry ID")
		}

		var payload entryPayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		record, err := app.FindRecordById("concentration_entries", entryID)
		if err != nil {
			return errorJSON(e, http.StatusNotFound, "Entry not found")
		}

		record.Set("description", payload.Description)
		record.Set("count", payload.Count)
		record.Set("length", payload.Length)
		record.Set("width", payload.Width)
		record.Set("height", payload.Height)
		record.Set("quantity", services.CalcEntryQuantity(payload.Count, payload.Length, payload.Width, payload.Height))
		if err := app.Save(record); err != nil {
			log.Printf("entry_update: error saving entry %s: %v", entryID, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to save entry")
		}

		sheet, err := app.FindRecordById("concentration_sheets", record.GetString("sheet"))
		if err != nil {
			log.Printf("entry_update: sheet missing for entry %s: %v", entryID, err)
			return errorJSON(e, http.StatusInternalServerError, "Internal error")
		}
		return sheetJSON(e, app, sheet)
	}
}

// HandleConcentrationEntryDelete returns a handler that removes a measurement row.
func HandleConcentrationEntryDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		entryID := e.Request.PathValue("id")
		if entryID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing entry ID")
		}

		record, err := app.FindRecordById("concentration_entries", entryID)
		if err != nil {
			return errorJSON(e, http.StatusNotFound, "Entry not found")
		}
		sheetID := record.GetString("sheet")
		if err := app.Delete(record); err != nil {
			log.Printf("entry_delete: error deleting entry %s: %v", entryID, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to delete entry")
		}

		sheet, err := app.FindRecordById("concentration_sheets", sheetID)
		if err != nil {
			log.Printf("entry_delete: sheet missing for entry %s: %v", entryID, err)
			return errorJSON(e, http.StatusInternalServerError, "Internal error")
		}
		return sheetJSON(e, app, sheet)
	}
}
