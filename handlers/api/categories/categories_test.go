package categories

import (
	"context"
	"encoding/json"
	"marketmaster/core"
	"marketmaster/handlers/websocket"
	"marketmaster/stores/memory"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newRouter(store core.CategoryStore, notifier websocket.Notifier) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", HandleList(store))
		r.Post("/", HandleCreate(store, notifier))
		r.Get("/{name}", HandleGet(store))
		r.Patch("/{name}", HandleUpdate(store, notifier))
	})
	return r
}

func seededStore(t *testing.T) core.CategoryStore {
	t.Helper()
	store := memory.NewStore()
	if _, err := store.CreateCategory(context.Background(), core.CategoryFlyer, []string{"all", "event", "business"}); err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	return store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleList(t *testing.T) {
	h := newRouter(seededStore(t), nil)
	rec := do(h, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	var categories []core.Category
	if err := json.NewDecoder(rec.Body).Decode(&categories); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != core.CategoryFlyer {
		t.Errorf("unexpected categories: %+v", categories)
	}
}

func TestHandleGet(t *testing.T) {
	h := newRouter(seededStore(t), nil)

	if rec := do(h, http.MethodGet, "/api/categories/flyer", ""); rec.Code != http.StatusOK {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := do(h, http.MethodGet, "/api/categories/poster", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleUpdate_AllStaysFirst(t *testing.T) {
	recorder := &websocket.Recorder{}
	h := newRouter(seededStore(t), recorder)

	rec := do(h, http.MethodPatch, "/api/categories/flyer", `{"subcategories":["Open House","event","all","service"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d: %s", rec.Code, rec.Body.String())
	}
	var category core.Category
	if err := json.NewDecoder(rec.Body).Decode(&category); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	want := []string{"all", "open-house", "event", "service"}
	if !reflect.DeepEqual(category.Subcategories, want) {
		t.Errorf("Subcategories = %v, want %v", category.Subcategories, want)
	}
	if events := recorder.Snapshot(); len(events) != 1 || events[0].Event != websocket.EventCategoriesChanged {
		t.Errorf("unexpected notifications: %+v", events)
	}
}

func TestHandleUpdate_Errors(t *testing.T) {
	testCases := []struct {
		name string
		path string
		body string
		code int
	}{
		{"not an array", "/api/categories/flyer", `{"subcategories":"event"}`, http.StatusBadRequest},
		{"missing field", "/api/categories/flyer", `{}`, http.StatusBadRequest},
		{"null", "/api/categories/flyer", `{"subcategories":null}`, http.StatusBadRequest},
		{"array of numbers", "/api/categories/flyer", `{"subcategories":[1,2]}`, http.StatusBadRequest},
		{"duplicates", "/api/categories/flyer", `{"subcategories":["Event","event"]}`, http.StatusBadRequest},
		{"malformed", "/api/categories/flyer", `{`, http.StatusBadRequest},
		{"unknown category", "/api/categories/poster", `{"subcategories":[]}`, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newRouter(seededStore(t), nil), http.MethodPatch, tc.path, tc.body)
			if rec.Code != tc.code {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tc.code)
			}
		})
	}
}

func TestHandleCreate(t *testing.T) {
	h := newRouter(seededStore(t), nil)

	rec := do(h, http.MethodPost, "/api/categories", `{"name":"postcard","subcategories":["holiday"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d: %s", rec.Code, rec.Body.String())
	}
	var category core.Category
	if err := json.NewDecoder(rec.Body).Decode(&category); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if category.ID != 2 || !reflect.DeepEqual(category.Subcategories, []string{"all", "holiday"}) {
		t.Errorf("unexpected category: %+v", category)
	}

	if rec := do(h, http.MethodPost, "/api/categories", `{"name":"flyer"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate name: got %d, want %d", rec.Code, http.StatusConflict)
	}
	if rec := do(h, http.MethodPost, "/api/categories", `{"name":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := do(h, http.MethodPost, "/api/categories", `{"name":"x","subcategories":{}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad list: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
