package properties

import (
	"encoding/json"
	"marketmaster/core"
	"marketmaster/properties"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	catalog, err := properties.Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/api/properties", HandleList(catalog))
	r.Get("/api/properties/{id}", HandleGet(catalog))
	return r
}

func TestHandleList(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	var listings []core.Property
	if err := json.NewDecoder(rec.Body).Decode(&listings); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(listings) != 5 {
		t.Errorf("Expected 5 listings, got %d", len(listings))
	}
}

func TestHandleGet(t *testing.T) {
	h := newRouter(t)
	testCases := []struct {
		path string
		code int
	}{
		{"/api/properties/2", http.StatusOK},
		{"/api/properties/42", http.StatusNotFound},
		{"/api/properties/abc", http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.code {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tc.code)
			}
		})
	}
}
