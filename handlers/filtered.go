package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

// HandleItemsFiltered returns a handler that evaluates a filter state against
// every row and returns the surviving rows plus totals computed over them.
// An empty body (or empty filter state) matches everything.
func HandleItemsFiltered(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		filters := services.NewFilterState()
		if err := e.BindBody(&filters); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid filter body")
		}

		ctx := e.Request.Context()
		items, err := store.FetchItems(ctx)
		if err != nil {
			log.Printf("items_filtered: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load items")
		}
		updates, err := store.FetchUpdates(ctx)
		if err != nil {
			log.Printf("items_filtered: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load contract updates")
		}

		values := services.UpdateValueIndex{}
		if len(updates) > 0 {
			values, err = fetchAllUpdateValues(ctx, store, updates)
			if err != nil {
				log.Printf("items_filtered: %v", err)
				return errorJSON(e, http.StatusInternalServerError, "Failed to load update values")
			}
		}

		filtered := services.ApplyFilters(items, values, filters)
		totals := services.CalcTotals(filtered, updates, values)

		return e.JSON(http.StatusOK, map[string]any{
			"items":  toItemResponses(filtered),
			"totals": totals,
			"count":  len(filtered),
		})
	}
}
