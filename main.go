package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/collections"
	"boqtracker/handlers"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── BOQ items ────────────────────────────────────────────
		se.Router.GET("/api/items", handlers.HandleItemList(app))
		se.Router.POST("/api/items", handlers.HandleItemCreate(app))
		se.Router.PATCH("/api/items/{id}", handlers.HandleItemUpdate(app))
		se.Router.DELETE("/api/items/{id}", handlers.HandleItemDelete(app))
		se.Router.POST("/api/items/filtered", handlers.HandleItemsFiltered(app))

		// ── Contract updates ─────────────────────────────────────
		se.Router.GET("/api/contract-updates", handlers.HandleContractUpdateList(app))
		se.Router.POST("/api/contract-updates", handlers.HandleContractUpdateCreate(app))
		se.Router.PATCH("/api/contract-updates/{id}", handlers.HandleContractUpdateRename(app))
		se.Router.DELETE("/api/contract-updates/{id}", handlers.HandleContractUpdateDelete(app))
		se.Router.GET("/api/contract-updates/{id}/values", handlers.HandleUpdateValuesList(app))
		se.Router.PUT("/api/contract-updates/{id}/values", handlers.HandleUpdateValueSave(app))

		// ── Summaries ────────────────────────────────────────────
		se.Router.GET("/api/summary/{group}", handlers.HandleSummary(app))

		// ── Concentration sheets ─────────────────────────────────
		se.Router.GET("/api/items/{id}/concentration", handlers.HandleConcentrationGet(app))
		se.Router.PUT("/api/items/{id}/concentration", handlers.HandleConcentrationMetaSave(app))
		se.Router.POST("/api/items/{id}/concentration/entries", handlers.HandleConcentrationEntryCreate(app))
		se.Router.PATCH("/api/concentration-entries/{id}", handlers.HandleConcentrationEntryUpdate(app))
		se.Router.DELETE("/api/concentration-entries/{id}", handlers.HandleConcentrationEntryDelete(app))

		// ── Export ───────────────────────────────────────────────
		se.Router.POST("/api/export", handlers.HandleExport(app))

		// ── Column preferences ───────────────────────────────────
		se.Router.GET("/api/column-preferences/{pageKey}", handlers.HandleColumnPreferencesGet(app))
		se.Router.PUT("/api/column-preferences/{pageKey}", handlers.HandleColumnPreferencesSave(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
