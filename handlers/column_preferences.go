package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

// loadStoredColumns reads the persisted visibility map for a page, returning
// an empty map when nothing has been saved yet.
func loadStoredColumns(app *pocketbase.PocketBase, pageKey string) (services.ColumnVisibility, *core.Record, error) {
	col, err := app.FindCollectionByNameOrId("column_preferences")
	if err != nil {
		return nil, nil, err
	}

	records, err := app.FindRecordsByFilter(col, "page_key = {:pageKey}", "", 1, 0, map[string]any{"pageKey": pageKey})
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return services.ColumnVisibility{}, nil, nil
	}

	stored := services.ColumnVisibility{}
	if err := records[0].UnmarshalJSONField("columns", &stored); err != nil {
		// Corrupt preference blobs fall back to defaults instead of
		// breaking the page.
		log.Printf("column_preferences: unreadable columns for %q: %v", pageKey, err)
		stored = services.ColumnVisibility{}
	}
	return stored, records[0], nil
}

// pruneUpdateFromPreferences removes a deleted contract update's column keys
// from every persisted preference record, completing the deletion cascade for
// visibility maps saved server side.
func pruneUpdateFromPreferences(app *pocketbase.PocketBase, updateID string) error {
	records, err := app.FindAllRecords("column_preferences")
	if err != nil {
		return err
	}

	qtyKey := services.UpdateQuantityColumn(updateID)
	sumKey := services.UpdateSumColumn(updateID)
	for _, record := range records {
		vis := services.ColumnVisibility{}
		if err := record.UnmarshalJSONField("columns", &vis); err != nil {
			log.Printf("column_preferences: unreadable columns for %q: %v", record.GetString("page_key"), err)
			continue
		}
		_, hadQty := vis[qtyKey]
		_, hadSum := vis[sumKey]
		if !hadQty && !hadSum {
			continue
		}
		services.PruneUpdate(vis, nil, updateID)
		record.Set("columns", vis)
		if err := app.Save(record); err != nil {
			return err
		}
	}
	return nil
}

// HandleColumnPreferencesGet returns a handler that loads a page's column
// visibility merged against the defaults and the current contract updates, so
// columns added since the last save show up visible.
func HandleColumnPreferencesGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		pageKey := e.Request.PathValue("pageKey")
		if pageKey == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing page key")
		}

		vis, _, err := loadStoredColumns(app, pageKey)
		if err != nil {
			log.Printf("column_preferences_get: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load column preferences")
		}

		services.MergeStaticColumns(vis)
		updates, err := store.FetchUpdates(e.Request.Context())
		if err != nil {
			log.Printf("column_preferences_get: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load contract updates")
		}
		services.MergeUpdateColumns(vis, updates)
		// Preferences saved before an update was deleted may still carry its
		// keys; never serve columns for a dead update.
		services.PruneStaleUpdateColumns(vis, updates)

		return e.JSON(http.StatusOK, map[string]any{
			"page_key": pageKey,
			"columns":  vis,
		})
	}
}

type columnPreferencesPayload struct {
	Columns services.ColumnVisibility `json:"columns"`
}

// HandleColumnPreferencesSave returns a handler that upserts a page's column
// visibility map.
func HandleColumnPreferencesSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		pageKey := e.Request.PathValue("pageKey")
		if pageKey == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing page key")
		}

		var payload columnPreferencesPayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if payload.Columns == nil {
			return errorJSON(e, http.StatusBadRequest, "Missing columns map")
		}

		_, record, err := loadStoredColumns(app, pageKey)
		if err != nil {
			log.Printf("column_preferences_save: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load column preferences")
		}

		if record == nil {
			col, err := app.FindCollectionByNameOrId("column_preferences")
			if err != nil {
				log.Printf("column_preferences_save: collection not found: %v", err)
				return errorJSON(e, http.StatusInternalServerError, "Internal error")
			}
			record = core.NewRecord(col)
			record.Set("page_key", pageKey)
		}
		record.Set("columns", payload.Columns)
		if err := app.Save(record); err != nil {
			log.Printf("column_preferences_save: error saving %q: %v", pageKey, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to save column preferences")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"page_key": pageKey,
			"columns":  payload.Columns,
		})
	}
}
