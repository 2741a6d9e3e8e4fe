package designs

import (
	"encoding/json"
	"errors"
	"io"
	"marketmaster/core"
	"marketmaster/handlers/websocket"
	"marketmaster/metrics"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 10 << 20

type (
	ErrorResponse struct {
		Message string `json:"message"`
		Errors  string `json:"errors,omitempty"`
	}

	DeleteResponse struct {
		Success bool `json:"success"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message})
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Design not found")
		return
	}
	logrus.WithError(err).Error(message)
	metrics.NewMetrics().RecordStoreError()
	writeError(w, r, http.StatusInternalServerError, message)
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	metrics.NewMetrics().RecordValidationFailure("designs")
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Message: "Invalid design data", Errors: verr.Error()})
	return true
}

// designID parses the {id} URL parameter. A non-integer id cannot name a design.
func designID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func notify(n websocket.Notifier, change websocket.Change) {
	if n != nil {
		n.DesignsChanged(change)
	}
}

func HandleList(store core.DesignStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		designs, err := store.ListDesigns(r.Context())
		if err != nil {
			writeStoreError(w, r, err, "Failed to fetch designs")
			return
		}
		render.JSON(w, r, designs)
	}
}

// HandleListByCategory serves both /designs/category/{category} and
// /designs/category?category=.
func HandleListByCategory(store core.DesignStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		if category == "" {
			category = r.URL.Query().Get("category")
		}
		if category == "" {
			writeError(w, r, http.StatusNotFound, "Design not found")
			return
		}

		designs, err := store.DesignsByCategory(r.Context(), category)
		if err != nil {
			writeStoreError(w, r, err, "Failed to fetch designs by category")
			return
		}
		render.JSON(w, r, designs)
	}
}

func HandleListBySubcategory(store core.DesignStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		subcategory := chi.URLParam(r, "subcategory")

		designs, err := store.DesignsBySubcategory(r.Context(), category, subcategory)
		if err != nil {
			writeStoreError(w, r, err, "Failed to fetch designs by subcategory")
			return
		}
		render.JSON(w, r, designs)
	}
}

func HandleGet(store core.DesignStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := designID(r)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Design not found")
			return
		}

		design, err := store.GetDesign(r.Context(), id)
		if err != nil {
			writeStoreError(w, r, err, "Failed to fetch design")
			return
		}
		render.JSON(w, r, design)
	}
}

func HandleCreate(store core.DesignStore, notifier websocket.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "Failed to read request body")
			return
		}
		defer r.Body.Close()

		if _, err := validate(createSchema, body); err != nil {
			if !writeValidationError(w, r, err) {
				writeStoreError(w, r, err, "Failed to create design")
			}
			return
		}

		var payload core.NewDesign
		if err := json.Unmarshal(body, &payload); err != nil {
			writeValidationError(w, r, &ValidationError{Problems: []string{"body: " + err.Error()}})
			return
		}

		design, err := store.CreateDesign(r.Context(), &payload)
		if err != nil {
			writeStoreError(w, r, err, "Failed to create design")
			return
		}

		logrus.WithFields(logrus.Fields{
			"design_id": design.ID,
			"category":  design.Category,
		}).Info("Design saved successfully")
		metrics.NewMetrics().RecordMutation("designs", "create")
		notify(notifier, websocket.Change{Action: "create", ID: design.ID, Category: design.Category})

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, design)
	}
}

func HandleUpdate(store core.DesignStore, notifier websocket.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := designID(r)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Design not found")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "Failed to read request body")
			return
		}
		defer r.Body.Close()

		if _, err := validate(patchSchema, body); err != nil {
			if !writeValidationError(w, r, err) {
				writeStoreError(w, r, err, "Failed to update design")
			}
			return
		}

		var patch core.DesignPatch
		if err := json.Unmarshal(body, &patch); err != nil {
			writeValidationError(w, r, &ValidationError{Problems: []string{"body: " + err.Error()}})
			return
		}

		design, err := store.UpdateDesign(r.Context(), id, &patch)
		if err != nil {
			writeStoreError(w, r, err, "Failed to update design")
			return
		}

		metrics.NewMetrics().RecordMutation("designs", "update")
		notify(notifier, websocket.Change{Action: "update", ID: design.ID, Category: design.Category})
		render.JSON(w, r, design)
	}
}

func HandleDelete(store core.DesignStore, notifier websocket.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := designID(r)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Design not found")
			return
		}

		deleted, err := store.DeleteDesign(r.Context(), id)
		if err != nil {
			writeStoreError(w, r, err, "Failed to delete design")
			return
		}
		if !deleted {
			writeError(w, r, http.StatusNotFound, "Design not found")
			return
		}

		metrics.NewMetrics().RecordMutation("designs", "delete")
		notify(notifier, websocket.Change{Action: "delete", ID: id})
		render.JSON(w, r, DeleteResponse{Success: true})
	}
}
