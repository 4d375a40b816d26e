// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestItem creates a BOQ item record with the given section number and
// price, fills sensible defaults, and returns it.
func CreateTestItem(t *testing.T, app *pocketbase.PocketBase, sectionNumber string, price, quantity float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq_items")
	if err != nil {
		t.Fatalf("failed to find boq_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("section_number", sectionNumber)
	record.Set("description", "Test item "+sectionNumber)
	record.Set("unit", "m3")
	record.Set("price", price)
	record.Set("original_contract_quantity", quantity)
	record.Set("total_contract_sum", price*quantity)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test item: %v", err)
	}

	return record
}

// CreateTestUpdate creates a contract update record and returns it.
func CreateTestUpdate(t *testing.T, app *pocketbase.PocketBase, index int, title string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("contract_updates")
	if err != nil {
		t.Fatalf("failed to find contract_updates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("update_index", index)
	record.Set("title", title)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test contract update: %v", err)
	}

	return record
}

// CreateTestUpdateValue creates a contract update value joining an item and
// an update, and returns it.
func CreateTestUpdateValue(t *testing.T, app *pocketbase.PocketBase, itemID, updateID string, quantity, sum float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("contract_update_values")
	if err != nil {
		t.Fatalf("failed to find contract_update_values collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("item", itemID)
	record.Set("update", updateID)
	record.Set("updated_quantity", quantity)
	record.Set("updated_sum", sum)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test update value: %v", err)
	}

	return record
}

// CreateTestSheet creates a concentration sheet for an item and returns it.
func CreateTestSheet(t *testing.T, app *pocketbase.PocketBase, itemID string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("concentration_sheets")
	if err != nil {
		t.Fatalf("failed to find concentration_sheets collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("item", itemID)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test concentration sheet: %v", err)
	}

	return record
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("response body missing %q", frag)
		}
	}
}
