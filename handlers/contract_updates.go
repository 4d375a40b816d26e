package handlers

import (
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/services"
)

type updateResponse struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Title string `json:"title"`
}

func toUpdateResponse(u services.ContractUpdate) updateResponse {
	return updateResponse{ID: u.ID, Index: u.Index, Title: u.Title}
}

type updateValueResponse struct {
	ItemID   string  `json:"item_id"`
	UpdateID string  `json:"update_id"`
	Quantity float64 `json:"quantity"`
	Sum      float64 `json:"sum"`
}

// HandleContractUpdateList returns a handler that lists contract updates in order.
func HandleContractUpdateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		updates, err := store.FetchUpdates(e.Request.Context())
		if err != nil {
			log.Printf("update_list: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load contract updates")
		}

		out := make([]updateResponse, 0, len(updates))
		for _, u := range updates {
			out = append(out, toUpdateResponse(u))
		}
		return e.JSON(http.StatusOK, map[string]any{"updates": out})
	}
}

// HandleContractUpdateCreate returns a handler that appends a new revision.
// The index and default title are assigned server side.
func HandleContractUpdateCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		u, err := store.CreateUpdate(e.Request.Context())
		if err != nil {
			log.Printf("update_create: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to create contract update")
		}
		return e.JSON(http.StatusOK, toUpdateResponse(u))
	}
}

type updateRenamePayload struct {
	Title string `json:"title"`
}

func (p updateRenamePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
	)
}

// HandleContractUpdateRename returns a handler that retitles a revision.
func HandleContractUpdateRename(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		updateID := e.Request.PathValue("id")
		if updateID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing update ID")
		}

		var payload updateRenamePayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		record, err := app.FindRecordById("contract_updates", updateID)
		if err != nil {
			return errorJSON(e, http.StatusNotFound, "Contract update not found")
		}
		record.Set("title", payload.Title)
		if err := app.Save(record); err != nil {
			log.Printf("update_rename: error saving update %s: %v", updateID, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to rename contract update")
		}
		return e.JSON(http.StatusOK, toUpdateResponse(recordToUpdate(record)))
	}
}

// HandleContractUpdateDelete returns a handler that removes a revision and,
// through the cascade, every per-item value recorded under it.
func HandleContractUpdateDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		updateID := e.Request.PathValue("id")
		if updateID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing update ID")
		}

		if err := store.DeleteUpdate(e.Request.Context(), updateID); err != nil {
			if err == services.ErrRowNotFound {
				return errorJSON(e, http.StatusNotFound, "Contract update not found")
			}
			log.Printf("update_delete: error deleting update %s: %v", updateID, err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to delete contract update")
		}
		if err := pruneUpdateFromPreferences(app, updateID); err != nil {
			// The update is gone; the GET handler also drops dead keys, so a
			// failed prune is not worth failing the request over.
			log.Printf("update_delete: could not prune column preferences for %s: %v", updateID, err)
		}
		return e.JSON(http.StatusOK, map[string]string{"deleted": updateID})
	}
}

// HandleUpdateValuesList returns a handler that lists the per-item values of one revision.
func HandleUpdateValuesList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		updateID := e.Request.PathValue("id")
		if updateID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing update ID")
		}
		if _, err := app.FindRecordById("contract_updates", updateID); err != nil {
			return errorJSON(e, http.StatusNotFound, "Contract update not found")
		}

		values, err := store.FetchUpdateValues(e.Request.Context(), updateID)
		if err != nil {
			log.Printf("update_values: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load update values")
		}

		out := make([]updateValueResponse, 0, len(values))
		for _, v := range values {
			out = append(out, updateValueResponse{
				ItemID:   v.ItemID,
				UpdateID: v.UpdateID,
				Quantity: v.Quantity,
				Sum:      v.Sum,
			})
		}
		return e.JSON(http.StatusOK, map[string]any{"values": out})
	}
}

type updateValuePayload struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

func (p updateValuePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ItemID, validation.Required),
		validation.Field(&p.Quantity, validation.Min(0.0)),
	)
}

// HandleUpdateValueSave returns a handler that upserts a revision quantity for
// one item. The sum comes back derived from the item's current price.
func HandleUpdateValueSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := NewStore(app)
	return func(e *core.RequestEvent) error {
		updateID := e.Request.PathValue("id")
		if updateID == "" {
			return errorJSON(e, http.StatusBadRequest, "Missing update ID")
		}

		var payload updateValuePayload
		if err := e.BindBody(&payload); err != nil {
			return errorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}

		ctx := e.Request.Context()
		if err := store.SaveUpdateValue(ctx, updateID, payload.ItemID, payload.Quantity); err != nil {
			if err == services.ErrRowNotFound {
				return errorJSON(e, http.StatusNotFound, "Item or contract update not found")
			}
			log.Printf("update_value_save: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to save update value")
		}

		values, err := store.FetchUpdateValues(ctx, updateID)
		if err != nil {
			log.Printf("update_value_save: refetch: %v", err)
			return errorJSON(e, http.StatusInternalServerError, "Failed to load update values")
		}
		for _, v := range values {
			if v.ItemID == payload.ItemID {
				return e.JSON(http.StatusOK, updateValueResponse{
					ItemID:   v.ItemID,
					UpdateID: v.UpdateID,
					Quantity: v.Quantity,
					Sum:      v.Sum,
				})
			}
		}
		return errorJSON(e, http.StatusInternalServerError, "Saved value missing on refetch")
	}
}
