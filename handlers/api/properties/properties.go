package properties

import (
	"marketmaster/properties"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func HandleList(catalog *properties.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, catalog.List())
	}
}

func HandleGet(catalog *properties.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Message: "Property not found"})
			return
		}
		p, err := catalog.Get(id)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Message: "Property not found"})
			return
		}
		render.JSON(w, r, p)
	}
}
