package designs

import (
	"context"
	"encoding/json"
	"errors"
	"marketmaster/core"
	"marketmaster/handlers/websocket"
	"marketmaster/stores/memory"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// failingStore returns err from every call.
type failingStore struct {
	err error
}

func (f *failingStore) ListDesigns(ctx context.Context) ([]*core.Design, error) { return nil, f.err }
func (f *failingStore) DesignsByCategory(ctx context.Context, category string) ([]*core.Design, error) {
	return nil, f.err
}
func (f *failingStore) DesignsBySubcategory(ctx context.Context, category, subcategory string) ([]*core.Design, error) {
	return nil, f.err
}
func (f *failingStore) GetDesign(ctx context.Context, id int) (*core.Design, error) { return nil, f.err }
func (f *failingStore) CreateDesign(ctx context.Context, design *core.NewDesign) (*core.Design, error) {
	return nil, f.err
}
func (f *failingStore) UpdateDesign(ctx context.Context, id int, patch *core.DesignPatch) (*core.Design, error) {
	return nil, f.err
}
func (f *failingStore) DeleteDesign(ctx context.Context, id int) (bool, error) { return false, f.err }

func newRouter(store core.DesignStore, notifier websocket.Notifier) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/designs", func(r chi.Router) {
		r.Get("/", HandleList(store))
		r.Post("/", HandleCreate(store, notifier))
		r.Get("/category", HandleListByCategory(store))
		r.Get("/category/{category}", HandleListByCategory(store))
		r.Get("/category/{category}/subcategory/{subcategory}", HandleListBySubcategory(store))
		r.Get("/{id}", HandleGet(store))
		r.Patch("/{id}", HandleUpdate(store, notifier))
		r.Delete("/{id}", HandleDelete(store, notifier))
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

const flyerBody = `{
	"name": "Open House",
	"category": "flyer",
	"subcategory": "event",
	"content": {"objects": [
		{"type": "text", "text": "OPEN HOUSE", "left": 300, "top": 100, "fontSize": 48},
		{"type": "triangle", "left": 10, "top": 10, "width": 50}
	], "background": "#ffffff"},
	"width": 600,
	"height": 800
}`

func TestHandleCreate_Success(t *testing.T) {
	recorder := &websocket.Recorder{}
	h := newRouter(memory.NewStore(), recorder)

	rec := do(t, h, http.MethodPost, "/api/designs", flyerBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	created := decode[core.Design](t, rec)
	if created.ID <= 0 {
		t.Errorf("expected a positive id, got %d", created.ID)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.Before(created.CreatedAt) {
		t.Errorf("bad timestamps: %v %v", created.CreatedAt, created.UpdatedAt)
	}

	events := recorder.Snapshot()
	if len(events) != 1 || events[0].Event != websocket.EventDesignsChanged || events[0].Change.ID != created.ID {
		t.Errorf("unexpected notifications: %+v", events)
	}
}

func TestCreateThenGet(t *testing.T) {
	h := newRouter(memory.NewStore(), nil)

	created := decode[core.Design](t, do(t, h, http.MethodPost, "/api/designs", flyerBody))

	rec := do(t, h, http.MethodGet, "/api/designs/"+strconv.Itoa(created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode[core.Design](t, rec)

	if got.Name != "Open House" || got.Category != core.CategoryFlyer || got.Width != 600 || got.Height != 800 {
		t.Errorf("fetched design mismatch: %+v", got)
	}
	if got.Subcategory == nil || *got.Subcategory != "event" {
		t.Errorf("Subcategory mismatch: %v", got.Subcategory)
	}
	if got.Thumbnail != nil {
		t.Errorf("Thumbnail should be null, got %q", *got.Thumbnail)
	}
	if len(got.Content.Objects) != 2 || got.Content.Background != "#ffffff" {
		t.Fatalf("content mismatch: %+v", got.Content)
	}
	if text, ok := got.Content.Objects[0].(*core.Text); !ok || text.Text != "OPEN HOUSE" {
		t.Errorf("first object mismatch: %#v", got.Content.Objects[0])
	}
	if unknown, ok := got.Content.Objects[1].(*core.Unknown); !ok || unknown.Kind != "triangle" {
		t.Errorf("unknown object not preserved: %#v", got.Content.Objects[1])
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed: %v != %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestHandleCreate_DefaultName(t *testing.T) {
	h := newRouter(memory.NewStore(), nil)
	rec := do(t, h, http.MethodPost, "/api/designs", `{"category":"brochure","content":{"objects":[]},"width":800,"height":1000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Design](t, rec); got.Name != core.DefaultDesignName {
		t.Errorf("Name = %q, want %q", got.Name, core.DefaultDesignName)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed JSON", `{"category":`, "body"},
		{"missing category", `{"content":{"objects":[]},"width":600,"height":800}`, "category"},
		{"unknown category", `{"category":"poster","content":{"objects":[]},"width":600,"height":800}`, "category"},
		{"zero width", `{"category":"flyer","content":{"objects":[]},"width":0,"height":800}`, "width"},
		{"string height", `{"category":"flyer","content":{"objects":[]},"width":600,"height":"tall"}`, "height"},
		{"objects not an array", `{"category":"flyer","content":{"objects":{}},"width":600,"height":800}`, "content.objects"},
		{"object without type", `{"category":"flyer","content":{"objects":[{"left":1}]},"width":600,"height":800}`, "content.objects.0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			rec := do(t, newRouter(store, nil), http.MethodPost, "/api/designs", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Message != "Invalid design data" {
				t.Errorf("Message = %q", resp.Message)
			}
			if !strings.Contains(resp.Errors, tc.field) {
				t.Errorf("Errors %q does not name %q", resp.Errors, tc.field)
			}

			designs, _ := store.ListDesigns(context.Background())
			if len(designs) != 0 {
				t.Errorf("invalid payload was stored")
			}
		})
	}
}

func TestHandleUpdate_NameOnly(t *testing.T) {
	h := newRouter(memory.NewStore(), nil)
	created := decode[core.Design](t, do(t, h, http.MethodPost, "/api/designs", flyerBody))

	rec := do(t, h, http.MethodPatch, "/api/designs/"+strconv.Itoa(created.ID), `{"name":"X"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[core.Design](t, rec)

	if updated.Name != "X" {
		t.Errorf("Name = %q, want X", updated.Name)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("immutable fields changed: %+v", updated)
	}
	if updated.Category != created.Category || updated.Width != created.Width || updated.Height != created.Height ||
		*updated.Subcategory != *created.Subcategory || len(updated.Content.Objects) != len(created.Content.Objects) {
		t.Errorf("other fields changed: %+v vs %+v", updated, created)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Errorf("UpdatedAt moved backwards")
	}
}

func TestHandleUpdate_IgnoresImmutableFields(t *testing.T) {
	h := newRouter(memory.NewStore(), nil)
	created := decode[core.Design](t, do(t, h, http.MethodPost, "/api/designs", flyerBody))

	rec := do(t, h, http.MethodPatch, "/api/designs/"+strconv.Itoa(created.ID),
		`{"id": 999, "createdAt": "2001-01-01T00:00:00Z", "thumbnail": null, "subcategory": null, "width": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[core.Design](t, rec)
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("immutable fields changed: %+v", updated)
	}
	if updated.Subcategory != nil {
		t.Errorf("explicit null should clear subcategory")
	}
	if updated.Width != 600 {
		t.Errorf("non-positive width should keep the stored value, got %d", updated.Width)
	}
}

func TestHandleUpdate_Errors(t *testing.T) {
	h := newRouter(memory.NewStore(), nil)

	testCases := []struct {
		name string
		path string
		body string
		code int
	}{
		{"absent id", "/api/designs/42", `{"name":"X"}`, http.StatusNotFound},
		{"non-integer id", "/api/designs/abc", `{"name":"X"}`, http.StatusNotFound},
		{"bad category", "/api/designs/1", `{"category":"poster"}`, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, tc.path, tc.body)
			if rec.Code != tc.code {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tc.code)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	recorder := &websocket.Recorder{}
	h := newRouter(memory.NewStore(), recorder)
	created := decode[core.Design](t, do(t, h, http.MethodPost, "/api/designs", flyerBody))
	path := "/api/designs/" + strconv.Itoa(created.ID)

	rec := do(t, h, http.MethodDelete, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	if resp := decode[DeleteResponse](t, rec); !resp.Success {
		t.Error("expected success:true")
	}

	if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after DELETE: got %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE: got %d, want %d", rec.Code, http.StatusNotFound)
	}
	if n := len(recorder.Snapshot()); n != 2 {
		t.Errorf("Expected 2 notifications (create, delete), got %d", n)
	}
}

func TestHandleListByCategory(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	event := "event"
	for _, nd := range []*core.NewDesign{
		{Name: "a", Category: core.CategoryFlyer, Subcategory: &event, Width: 1, Height: 1},
		{Name: "b", Category: core.CategoryFlyer, Width: 1, Height: 1},
		{Name: "c", Category: core.CategorySignboard, Width: 1, Height: 1},
	} {
		if _, err := store.CreateDesign(ctx, nd); err != nil {
			t.Fatalf("CreateDesign() failed: %v", err)
		}
	}
	h := newRouter(store, nil)

	testCases := []struct {
		name  string
		path  string
		code  int
		names []string
	}{
		{"all", "/api/designs", http.StatusOK, []string{"a", "b", "c"}},
		{"path param", "/api/designs/category/flyer", http.StatusOK, []string{"a", "b"}},
		{"query param", "/api/designs/category?category=signboard", http.StatusOK, []string{"c"}},
		{"missing query param", "/api/designs/category", http.StatusNotFound, nil},
		{"subcategory", "/api/designs/category/flyer/subcategory/event", http.StatusOK, []string{"a"}},
		{"subcategory all", "/api/designs/category/flyer/subcategory/all", http.StatusOK, []string{"a", "b"}},
		{"unknown category", "/api/designs/category/brochure", http.StatusOK, []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tc.path, "")
			if rec.Code != tc.code {
				t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, tc.code)
			}
			if tc.names == nil {
				return
			}
			designs := decode[[]core.Design](t, rec)
			if len(designs) != len(tc.names) {
				t.Fatalf("Expected %d designs, got %d", len(tc.names), len(designs))
			}
			for i, d := range designs {
				if d.Name != tc.names[i] {
					t.Errorf("designs[%d] = %q, want %q", i, d.Name, tc.names[i])
				}
			}
		})
	}
}

func TestStoreErrorsAreGeneric(t *testing.T) {
	h := newRouter(&failingStore{err: errors.New("disk on fire")}, nil)

	testCases := []struct {
		method, path, body, message string
	}{
		{http.MethodGet, "/api/designs", "", "Failed to fetch designs"},
		{http.MethodGet, "/api/designs/1", "", "Failed to fetch design"},
		{http.MethodPost, "/api/designs", flyerBody, "Failed to create design"},
		{http.MethodPatch, "/api/designs/1", `{"name":"X"}`, "Failed to update design"},
		{http.MethodDelete, "/api/designs/1", "", "Failed to delete design"},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Message != tc.message {
				t.Errorf("Message = %q, want %q", resp.Message, tc.message)
			}
			if strings.Contains(rec.Body.String(), "disk on fire") {
				t.Error("storage error leaked to the client")
			}
		})
	}
}

func TestStoreNotFoundMapsTo404(t *testing.T) {
	h := newRouter(&failingStore{err: core.ErrNotFound}, nil)
	if rec := do(t, h, http.MethodGet, "/api/designs/7", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateThenGet_KeepsObjectProperties(t *testing.T) {
	h := newRouter(memory.NewStore(), nil)
	body := `{"category":"flyer","width":600,"height":800,"content":{"objects":[
		{"type":"text","text":"JUST SOLD","fontStyle":"italic","opacity":0.5,"underline":true,"selectable":false}
	]}}`

	created := decode[core.Design](t, do(t, h, http.MethodPost, "/api/designs", body))
	rec := do(t, h, http.MethodGet, "/api/designs/"+strconv.Itoa(created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}

	var got struct {
		Content struct {
			Objects []map[string]any `json:"objects"`
		} `json:"content"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got.Content.Objects) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(got.Content.Objects))
	}
	obj := got.Content.Objects[0]
	want := map[string]any{"type": "text", "text": "JUST SOLD", "fontStyle": "italic", "opacity": 0.5, "underline": true, "selectable": false}
	for k, v := range want {
		if obj[k] != v {
			t.Errorf("%s = %v, want %v", k, obj[k], v)
		}
	}
	if _, ok := obj["left"]; ok {
		t.Errorf("unpositioned object gained a left key: %v", obj)
	}
}
