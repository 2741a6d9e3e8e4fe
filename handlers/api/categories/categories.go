package categories

import (
	"encoding/json"
	"errors"
	"marketmaster/core"
	"marketmaster/handlers/websocket"
	"marketmaster/metrics"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	ErrorResponse struct {
		Message string `json:"message"`
		Errors  string `json:"errors,omitempty"`
	}

	CreateRequest struct {
		Name          string   `json:"name"`
		Subcategories []string `json:"subcategories"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, message, detail string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message, Errors: detail})
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Category not found", "")
	case errors.Is(err, core.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "Category already exists", "")
	case errors.Is(err, core.ErrInvalid):
		metrics.NewMetrics().RecordValidationFailure("categories")
		writeError(w, r, http.StatusBadRequest, "Invalid category data", err.Error())
	default:
		logrus.WithError(err).Error(message)
		metrics.NewMetrics().RecordStoreError()
		writeError(w, r, http.StatusInternalServerError, message, "")
	}
}

func notify(n websocket.Notifier, change websocket.Change) {
	if n != nil {
		n.CategoriesChanged(change)
	}
}

// decodeSubcategories reads the "subcategories" member of body, which must be
// a JSON array of strings.
func decodeSubcategories(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("subcategories: required")
	}
	var subcategories []string
	if err := json.Unmarshal(raw, &subcategories); err != nil || subcategories == nil {
		return nil, errors.New("subcategories: must be an array of strings")
	}
	return subcategories, nil
}

func HandleList(store core.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.ListCategories(r.Context())
		if err != nil {
			writeStoreError(w, r, err, "Failed to fetch categories")
			return
		}
		render.JSON(w, r, categories)
	}
}

func HandleGet(store core.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := store.GetCategory(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			writeStoreError(w, r, err, "Failed to fetch category")
			return
		}
		render.JSON(w, r, category)
	}
}

func HandleCreate(store core.CategoryStore, notifier websocket.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name          string          `json:"name"`
			Subcategories json.RawMessage `json:"subcategories"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid category data", "body: malformed JSON")
			return
		}
		defer r.Body.Close()

		name := strings.TrimSpace(body.Name)
		if name == "" {
			writeError(w, r, http.StatusBadRequest, "Invalid category data", "name: required")
			return
		}
		subcategories := []string{}
		if len(body.Subcategories) > 0 {
			var err error
			if subcategories, err = decodeSubcategories(body.Subcategories); err != nil {
				writeError(w, r, http.StatusBadRequest, "Invalid category data", err.Error())
				return
			}
		}

		category, err := store.CreateCategory(r.Context(), name, subcategories)
		if err != nil {
			writeStoreError(w, r, err, "Failed to create category")
			return
		}

		logrus.WithField("category", category.Name).Info("Category created successfully")
		metrics.NewMetrics().RecordMutation("categories", "create")
		notify(notifier, websocket.Change{Action: "create", ID: category.ID, Category: category.Name})

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, category)
	}
}

// HandleUpdate replaces the subcategory list. "all" is restored at index 0
// whatever order the client sent.
func HandleUpdate(store core.CategoryStore, notifier websocket.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var body struct {
			Subcategories json.RawMessage `json:"subcategories"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid category data", "body: malformed JSON")
			return
		}
		defer r.Body.Close()

		subcategories, err := decodeSubcategories(body.Subcategories)
		if err != nil {
			metrics.NewMetrics().RecordValidationFailure("categories")
			writeError(w, r, http.StatusBadRequest, "Subcategories must be an array", err.Error())
			return
		}

		category, err := store.UpdateCategory(r.Context(), name, subcategories)
		if err != nil {
			writeStoreError(w, r, err, "Failed to update category")
			return
		}

		logrus.WithFields(logrus.Fields{
			"category":      category.Name,
			"subcategories": len(category.Subcategories),
		}).Info("Category updated successfully")
		metrics.NewMetrics().RecordMutation("categories", "update")
		notify(notifier, websocket.Change{Action: "update", ID: category.ID, Category: category.Name})
		render.JSON(w, r, category)
	}
}
