package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

// summaryKeyFns maps the path group segment to the field the roll-up buckets by.
var summaryKeyFns = map[string]func(services.BOQItem) string{
	"structures":  func(it services.BOQItem) string { return it.Structure },
	"systems":     func(it services.BOQItem) string { return it.SystemName },
	"subsections": func(it services.BOQItem) string { return it.Subsection },
	"contractors": func(it services.BOQItem) string { return it.Contractor },
}

// HandleSummary returns a handler that aggregates every row into per-group
// totals. Rows with an empty group value land in an unnamed bucket.
func HandleSummary(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		group := e.Request.PathValue("group")
		keyFn, ok := summaryKeyFns[group]
		if !ok {
			return errorJSON(e, http.StatusBadRequest, "Unknown summary group: "+group)
		}

		ctx := e.Request.Context()
		items, err := store.FetchItems(ctx)
		if err != nil {
			log.Printf("summary: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load items")
		}
		updates, err := store.FetchUpdates(ctx)
		if err != nil {
			log.Printf("summary: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load contract updates")
		}

		values := services.UpdateValueIndex{}
		if len(updates) > 0 {
			values, err = fetchAllUpdateValues(ctx, store, updates)
			if err != nil {
				log.Printf("summary: %v", err)
				return errorJSON(e, http.StatusInternalServerError, "Failed to load update values")
			}
		}

		groups := services.GroupTotalsBy(items, updates, values, keyFn)
		grand := services.CalcTotals(items, updates, values)

		return e.JSON(http.StatusOK, map[string]any{
			"group":  group,
			"groups": groups,
			"totals": grand,
		})
	}
}
