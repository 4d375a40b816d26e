package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type itemDef struct {
	sectionNumber    string
	description      string
	unit             string
	structure        string
	systemName       string
	subsection       string
	contractor       string
	price            float64
	contractQuantity float64
	estimatedQty     float64
}

var demoItems = []itemDef{
	{
		sectionNumber:    "01.01.010",
		description:      "Excavation for foundations in any soil",
		unit:             "m3",
		structure:        "Building A",
		systemName:       "Earthworks",
		subsection:       "01.01",
		contractor:       "Groundworks Ltd",
		price:            45,
		contractQuantity: 1200,
		estimatedQty:     1350,
	},
	{
		sectionNumber:    "02.01.020",
		description:      "Reinforced concrete B30 for foundations",
		unit:             "m3",
		structure:        "Building A",
		systemName:       "Structural concrete",
		subsection:       "02.01",
		contractor:       "Betonix",
		price:            520,
		contractQuantity: 380,
		estimatedQty:     395,
	},
	{
		sectionNumber:    "02.02.040",
		description:      "Reinforced concrete B40 for columns",
		unit:             "m3",
		structure:        "Building B",
		systemName:       "Structural concrete",
		subsection:       "02.02",
		contractor:       "Betonix",
		price:            640,
		contractQuantity: 150,
		estimatedQty:     150,
	},
	{
		sectionNumber:    "08.01.015",
		description:      "Electrical conduits 25mm embedded in slab",
		unit:             "m",
		structure:        "Building B",
		systemName:       "Electrical",
		subsection:       "08.01",
		contractor:       "Volt Systems",
		price:            12.5,
		contractQuantity: 4200,
		estimatedQty:     4000,
	},
}

// Seed populates demo BOQ items on first run. It is idempotent and returns
// early if any item records already exist.
func Seed(app *pocketbase.PocketBase) error {
	itemsCol, err := app.FindCollectionByNameOrId("boq_items")
	if err != nil {
		return fmt.Errorf("boq_items collection not found: %w", err)
	}

	existing, err := app.FindAllRecords(itemsCol)
	if err != nil {
		return fmt.Errorf("could not query boq_items: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	for _, def := range demoItems {
		r := core.NewRecord(itemsCol)
		r.Set("section_number", def.sectionNumber)
		r.Set("description", def.description)
		r.Set("unit", def.unit)
		r.Set("structure", def.structure)
		r.Set("system_name", def.systemName)
		r.Set("subsection", def.subsection)
		r.Set("contractor", def.contractor)
		r.Set("price", def.price)
		r.Set("original_contract_quantity", def.contractQuantity)
		r.Set("estimated_quantity", def.estimatedQty)
		r.Set("total_contract_sum", def.contractQuantity*def.price)
		r.Set("total_estimate", def.estimatedQty*def.price)
		r.Set("total_submitted", 0)
		r.Set("internal_total", 0)
		r.Set("approved_signed_total", 0)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("could not seed item %s: %w", def.sectionNumber, err)
		}
	}

	return nil
}
