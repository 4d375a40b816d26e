package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the boq_items, contract_updates,
// contract_update_values, concentration_sheets, concentration_entries and
// column_preferences collections exist.
func Setup(app *pocketbase.PocketBase) {
	boqItems := ensureCollection(app, "boq_items", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "section_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "unit", Required: false})
		c.Fields.Add(&core.TextField{Name: "structure", Required: false})
		c.Fields.Add(&core.TextField{Name: "system_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "subsection", Required: false})
		c.Fields.Add(&core.TextField{Name: "contractor", Required: false})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.NumberField{Name: "price", Required: false})
		c.Fields.Add(&core.NumberField{Name: "original_contract_quantity", Required: false})
		c.Fields.Add(&core.NumberField{Name: "estimated_quantity", Required: false})
		c.Fields.Add(&core.NumberField{Name: "quantity_submitted", Required: false})
		c.Fields.Add(&core.NumberField{Name: "internal_quantity", Required: false})
		c.Fields.Add(&core.NumberField{Name: "approved_signed_quantity", Required: false})
		// Derived totals, recomputed on every save.
		c.Fields.Add(&core.NumberField{Name: "total_contract_sum", Required: false})
		c.Fields.Add(&core.NumberField{Name: "total_estimate", Required: false})
		c.Fields.Add(&core.NumberField{Name: "total_submitted", Required: false})
		c.Fields.Add(&core.NumberField{Name: "internal_total", Required: false})
		c.Fields.Add(&core.NumberField{Name: "approved_signed_total", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	contractUpdates := ensureCollection(app, "contract_updates", func(c *core.Collection) {
		c.Fields.Add(&core.NumberField{Name: "update_index", Required: true})
		c.Fields.Add(&core.TextField{Name: "title", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "contract_update_values", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "item",
			Required:      true,
			CollectionId:  boqItems.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "update",
			Required:      true,
			CollectionId:  contractUpdates.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "updated_quantity", Required: false})
		c.Fields.Add(&core.NumberField{Name: "updated_sum", Required: false})
	})

	sheets := ensureCollection(app, "concentration_sheets", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "item",
			Required:      true,
			CollectionId:  boqItems.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "drawing_number", Required: false})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "concentration_entries", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "sheet",
			Required:      true,
			CollectionId:  sheets.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.NumberField{Name: "count", Required: false})
		c.Fields.Add(&core.NumberField{Name: "length", Required: false})
		c.Fields.Add(&core.NumberField{Name: "width", Required: false})
		c.Fields.Add(&core.NumberField{Name: "height", Required: false})
		// Derived: count × each non-zero dimension.
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: false})
	})

	ensureCollection(app, "column_preferences", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "page_key", Required: true})
		c.Fields.Add(&core.JSONField{Name: "columns", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
