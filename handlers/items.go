package handlers

import (
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"boqtracker/services"
)

// itemResponse is the JSON shape of a single BOQ row.
type itemResponse struct {
	ID                       string  `json:"id"`
	SectionNumber            string  `json:"section_number"`
	Description              string  `json:"description"`
	Unit                     string  `json:"unit"`
	Structure                string  `json:"structure"`
	SystemName               string  `json:"system_name"`
	Subsection               string  `json:"subsection"`
	Contractor               string  `json:"contractor"`
	Notes                    string  `json:"notes"`
	Price                    float64 `json:"price"`
	OriginalContractQuantity float64 `json:"original_contract_quantity"`
	EstimatedQuantity        float64 `json:"estimated_quantity"`
	QuantitySubmitted        float64 `json:"quantity_submitted"`
	InternalQuantity         float64 `json:"internal_quantity"`
	ApprovedSignedQuantity   float64 `json:"approved_signed_quantity"`
	TotalContractSum         float64 `json:"total_contract_sum"`
	TotalEstimate            float64 `json:"total_estimate"`
	TotalSubmitted           float64 `json:"total_submitted"`
	InternalTotal            float64 `json:"internal_total"`
	ApprovedSignedTotal      float64 `json:"approved_signed_total"`
}

func toItemResponse(it services.BOQItem) itemResponse {
	return itemResponse{
		ID:                       it.ID,
		SectionNumber:            it.SectionNumber,
		Description:              it.Description,
		Unit:                     it.Unit,
		Structure:                it.Structure,
		SystemName:               it.SystemName,
		Subsection:               it.Subsection,
		Contractor:               it.Contractor,
		Notes:                    it.Notes,
		Price:                    it.Price,
		OriginalContractQuantity: it.OriginalContractQuantity,
		EstimatedQuantity:        it.EstimatedQuantity,
		QuantitySubmitted:        it.QuantitySubmitted,
		InternalQuantity:         it.InternalQuantity,
		ApprovedSignedQuantity:   it.ApprovedSignedQuantity,
		TotalContractSum:         it.TotalContractSum,
		TotalEstimate:            it.TotalEstimate,
		TotalSubmitted:           it.TotalSubmitted,
		InternalTotal:            it.InternalTotal,
		ApprovedSignedTotal:      it.ApprovedSignedTotal,
	}
}

func toItemResponses(items []services.BOQItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return out
}

func errorJSON(e *core.RequestEvent, status int, msg string) error {
	return e.JSON(status, map[string]string{"error": msg})
}

// itemCreatePayload is the request body for creating a BOQ row.
type itemCreatePayload struct {
	SectionNumber            string  `json:"section_number"`
	Description              string  `json:"description"`
	Unit                     string  `json:"unit"`
	Structure                string  `json:"structure"`
	SystemName               string  `json:"system_name"`
	Subsection               string  `json:"subsection"`
	Contractor               string  `json:"contractor"`
	Notes                    string  `json:"notes"`
	Price                    float64 `json:"price"`
	OriginalContractQuantity float64 `json:"original_contract_quantity"`
	EstimatedQuantity        float64 `json:"estimated_quantity"`
	QuantitySubmitted        float64 `json:"quantity_submitted"`
	InternalQuantity         float64 `json:"internal_quantity"`
	ApprovedSignedQuantity   float64 `json:"approved_signed_quantity"`
}

func (p itemCreatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SectionNumber, validation.Required, validation.Length(1, 50)),
		validation.Field(&p.Description, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.Price, validation.Min(0.0)),
		validation.Field(&p.OriginalContractQuantity, validation.Min(0.0)),
	)
}

// listQueryFields are the query params GET /api/items narrows by, each an
// exact match against the corresponding field.
var listQueryFields = map[string]func(services.BOQItem) string{
	"structure":   func(it services.BOQItem) string { return it.Structure },
	"system_name": func(it services.BOQItem) string { return it.SystemName },
	"subsection":  func(it services.BOQItem) string { return it.Subsection },
	"contractor":  func(it services.BOQItem) string { return it.Contractor },
}

// HandleItemList returns a handler that lists all BOQ rows ordered by section
// number, optionally narrowed by exact-match query params.
func HandleItemList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		items, err := store.FetchItems(e.Request.Context())
		if err != nil {
			log.Printf("item_list: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load items")
		}

		query := e.Request.URL.Query()
		for param, fieldOf := range listQueryFields {
			want := query.Get(param)
			if want == "" {
				continue
			}
			kept := items[:0]
			for _, it := range items {
				if fieldOf(it) == want {
					kept = append(kept, it)
				}
			}
			items = kept
		}
		return e.JSON(http.StatusOK, map[string]any{"items": toItemResponses(items)})
	}
}

// HandleItemCreate returns a handler that creates a BOQ row and derives its totals.
func HandleItemCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var payload itemCreatePayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		col, err := app.FindCollectionByNameOrId("boq_items")
		if err != nil {
			log.Printf("item_create: collection not found: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Internal error")
		}

		it := services.BOQItem{
			SectionNumber:            payload.SectionNumber,
			Description:              payload.Description,
			Unit:                     payload.Unit,
			Structure:                payload.Structure,
			SystemName:               payload.SystemName,
			Subsection:               payload.Subsection,
			Contractor:               payload.Contractor,
			Notes:                    payload.Notes,
			Price:                    payload.Price,
			OriginalContractQuantity: payload.OriginalContractQuantity,
			EstimatedQuantity:        payload.EstimatedQuantity,
			QuantitySubmitted:        payload.QuantitySubmitted,
			InternalQuantity:         payload.InternalQuantity,
			ApprovedSignedQuantity:   payload.ApprovedSignedQuantity,
		}
		it.RecalcTotals()

		record := core.NewRecord(col)
		for name, value := range services.ItemFieldMap(it) {
			record.Set(name, value)
		}
		if err := app.Save(record); err != nil {
			log.Printf("item_create: error saving record: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to create item")
		}

		it.ID = record.Id
		return e.JSON(http.StatusOK, toItemResponse(it))
	}
}

// HandleItemUpdate returns a handler that applies a partial edit to a row.
// Only editable fields are accepted; derived totals are recomputed.
func HandleItemUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")
		if itemID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing item ID")
		}

		var payload map[string]any
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if len(payload) == 0 {
			return errorJSON(e, http.StatusBadRequest, "No fields to update")
		}

		record, err := app.FindRecordById("boq_items", itemID)
		if err != nil {
			return errorJSON(e, http.StatusNotFound, "Item not found")
		}
		it := recordToItem(record)

		for name, value := range payload {
			if !services.IsEditableField(name) {
				return errorJSON(e, http.StatusBadRequest, "Unknown field: "+name)
			}
			if err := it.SetField(name, value); err != nil {
				return errorJSON(e, http.StatusBadRequest, "Invalid value for "+name+": "+cast.ToString(value))
			}
		}
		it.RecalcTotals()

		saved, err := store.UpdateItem(e.Request.Context(), itemID, services.ItemFieldMap(it))
		if err != nil {
			log.Printf("item_update: error saving item %s: %v", itemID, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to save item")
		}
		return e.JSON(http.StatusOK, toItemResponse(saved))
	}
}

// HandleItemDelete returns a handler that removes a row. Update values and
// concentration sheets referencing it cascade.
func HandleItemDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")
		if itemID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing item ID")
		}

		if err := store.DeleteItem(e.Request.Context(), itemID); err != nil {
			if err == services.ErrRowNotFound {
				return errorJSON(e, http.StatusNotFound, "Item not found")
			}
			log.Printf("item_delete: error deleting item %s: %v", itemID, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to delete item")
		}
		return e.JSON(http.StatusOK, map[string]string{"deleted": itemID})
	}
}
