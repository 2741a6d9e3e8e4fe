// Package storetest holds the behaviour every storage backend must share.
package storetest

import (
	"context"
	"errors"
	"marketmaster/core"
	"sync"
	"testing"
	"time"
)

// Store is the union the contract runs against.
type Store interface {
	core.DesignStore
	core.CategoryStore
}

func strPtr(s string) *string { return &s }

func flyer(name string) *core.NewDesign {
	return &core.NewDesign{
		Name:     name,
		Category: core.CategoryFlyer,
		Content: core.Content{
			Objects: []core.CanvasObject{
				&core.Text{Text: "JUST LISTED", FontSize: 40},
				&core.Rect{Width: 600, Height: 100, Fill: "#4B4DED"},
			},
			Background: "#ffffff",
		},
		Width:  600,
		Height: 800,
	}
}

// Run executes the storage contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateAssignsIncreasingIDs", func(t *testing.T) {
		store := newStore(t)
		for want := 1; want <= 3; want++ {
			d, err := store.CreateDesign(ctx, flyer("d"))
			if err != nil {
				t.Fatalf("CreateDesign() failed: %v", err)
			}
			if d.ID != want {
				t.Errorf("CreateDesign() id = %d, want %d", d.ID, want)
			}
			if d.CreatedAt.IsZero() || d.CreatedAt.After(d.UpdatedAt) {
				t.Errorf("bad timestamps: created %v updated %v", d.CreatedAt, d.UpdatedAt)
			}
		}
	})

	t.Run("CreateThenGet", func(t *testing.T) {
		store := newStore(t)
		in := flyer("Open House")
		in.Subcategory = strPtr("event")
		in.Thumbnail = strPtr("https://example.com/t.png")

		created, err := store.CreateDesign(ctx, in)
		if err != nil {
			t.Fatalf("CreateDesign() failed: %v", err)
		}

		got, err := store.GetDesign(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetDesign() failed: %v", err)
		}
		if got.Name != "Open House" || got.Category != core.CategoryFlyer || got.Width != 600 || got.Height != 800 {
			t.Errorf("GetDesign() fields mismatch: %+v", got)
		}
		if got.Subcategory == nil || *got.Subcategory != "event" {
			t.Errorf("Subcategory mismatch: %v", got.Subcategory)
		}
		if len(got.Content.Objects) != 2 || got.Content.Objects[0].Type() != core.TypeText {
			t.Errorf("Content mismatch: %+v", got.Content)
		}
		if got.Content.Background != "#ffffff" {
			t.Errorf("Background mismatch: %q", got.Content.Background)
		}
		if !got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.Equal(created.UpdatedAt) {
			t.Error("timestamps changed between create and get")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetDesign(ctx, 42)
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("GetDesign() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ReturnedDesignsAreCopies", func(t *testing.T) {
		store := newStore(t)
		created, err := store.CreateDesign(ctx, flyer("copy"))
		if err != nil {
			t.Fatalf("CreateDesign() failed: %v", err)
		}
		created.Name = "mutated"
		created.Content.Objects[0].Apply(core.Patch{Text: strPtr("mutated")})

		got, _ := store.GetDesign(ctx, created.ID)
		if got.Name != "copy" || got.Content.Objects[0].(*core.Text).Text != "JUST LISTED" {
			t.Errorf("store state leaked through returned value: %+v", got)
		}
	})

	t.Run("UpdateNameOnly", func(t *testing.T) {
		store := newStore(t)
		created, err := store.CreateDesign(ctx, flyer("before"))
		if err != nil {
			t.Fatalf("CreateDesign() failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)

		updated, err := store.UpdateDesign(ctx, created.ID, &core.DesignPatch{Name: strPtr("X")})
		if err != nil {
			t.Fatalf("UpdateDesign() failed: %v", err)
		}
		if updated.Name != "X" {
			t.Errorf("Name mismatch: %q", updated.Name)
		}
		if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Error("ID or CreatedAt changed")
		}
		if updated.Category != created.Category || updated.Width != created.Width || updated.Height != created.Height {
			t.Errorf("unrelated fields changed: %+v", updated)
		}
		if len(updated.Content.Objects) != len(created.Content.Objects) {
			t.Error("content changed")
		}
		if updated.UpdatedAt.Before(created.UpdatedAt) {
			t.Errorf("UpdatedAt moved backwards: %v < %v", updated.UpdatedAt, created.UpdatedAt)
		}
	})

	t.Run("UpdateClearsNullable", func(t *testing.T) {
		store := newStore(t)
		in := flyer("nullable")
		in.Subcategory = strPtr("event")
		created, _ := store.CreateDesign(ctx, in)

		updated, err := store.UpdateDesign(ctx, created.ID, &core.DesignPatch{Subcategory: core.Null()})
		if err != nil {
			t.Fatalf("UpdateDesign() failed: %v", err)
		}
		if updated.Subcategory != nil {
			t.Errorf("Subcategory should be null, got %q", *updated.Subcategory)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.UpdateDesign(ctx, 99, &core.DesignPatch{Name: strPtr("X")})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("UpdateDesign() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		store := newStore(t)
		created, _ := store.CreateDesign(ctx, flyer("gone"))

		existed, err := store.DeleteDesign(ctx, created.ID)
		if err != nil || !existed {
			t.Fatalf("DeleteDesign() = %v, %v; want true, nil", existed, err)
		}
		if _, err := store.GetDesign(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("GetDesign() after delete error = %v, want ErrNotFound", err)
		}

		existed, err = store.DeleteDesign(ctx, created.ID)
		if err != nil || existed {
			t.Errorf("second DeleteDesign() = %v, %v; want false, nil", existed, err)
		}
	})

	t.Run("IDsAreNotReusedAfterDelete", func(t *testing.T) {
		store := newStore(t)
		first, _ := store.CreateDesign(ctx, flyer("a"))
		store.DeleteDesign(ctx, first.ID)
		second, _ := store.CreateDesign(ctx, flyer("b"))
		if second.ID <= first.ID {
			t.Errorf("id %d reused or decreased after %d", second.ID, first.ID)
		}
	})

	t.Run("ListAndFilter", func(t *testing.T) {
		store := newStore(t)
		sign := flyer("sign")
		sign.Category = core.CategorySignboard
		sign.Subcategory = strPtr("event")
		store.CreateDesign(ctx, sign)
		store.CreateDesign(ctx, flyer("flyer-1"))
		promo := flyer("flyer-2")
		promo.Subcategory = strPtr("promotional")
		store.CreateDesign(ctx, promo)

		all, err := store.ListDesigns(ctx)
		if err != nil {
			t.Fatalf("ListDesigns() failed: %v", err)
		}
		if len(all) != 3 || all[0].Name != "sign" || all[2].Name != "flyer-2" {
			t.Errorf("ListDesigns() order mismatch: %v", names(all))
		}

		flyers, _ := store.DesignsByCategory(ctx, core.CategoryFlyer)
		if len(flyers) != 2 {
			t.Errorf("DesignsByCategory() = %v, want 2 flyers", names(flyers))
		}

		everything, _ := store.DesignsBySubcategory(ctx, core.CategoryFlyer, core.SubcategoryAll)
		if len(everything) != 2 {
			t.Errorf("subcategory all = %v, want 2 flyers", names(everything))
		}

		promos, _ := store.DesignsBySubcategory(ctx, core.CategoryFlyer, "promotional")
		if len(promos) != 1 || promos[0].Name != "flyer-2" {
			t.Errorf("subcategory promotional = %v", names(promos))
		}

		none, _ := store.DesignsByCategory(ctx, core.CategoryBrochure)
		if none == nil || len(none) != 0 {
			t.Errorf("DesignsByCategory() for empty category = %v, want empty slice", none)
		}
	})

	t.Run("Categories", func(t *testing.T) {
		store := newStore(t)
		created, err := store.CreateCategory(ctx, "postcard", []string{"holiday", "all"})
		if err != nil {
			t.Fatalf("CreateCategory() failed: %v", err)
		}
		if created.ID != 1 || created.Subcategories[0] != core.SubcategoryAll {
			t.Errorf("CreateCategory() = %+v", created)
		}

		if _, err := store.CreateCategory(ctx, "postcard", nil); !errors.Is(err, core.ErrAlreadyExists) {
			t.Errorf("duplicate CreateCategory() error = %v, want ErrAlreadyExists", err)
		}

		second, _ := store.CreateCategory(ctx, "banner", nil)
		if second.ID != 2 || len(second.Subcategories) != 1 {
			t.Errorf("second CreateCategory() = %+v", second)
		}

		updated, err := store.UpdateCategory(ctx, "postcard", []string{"birthday", "holiday", "all"})
		if err != nil {
			t.Fatalf("UpdateCategory() failed: %v", err)
		}
		want := []string{"all", "birthday", "holiday"}
		if len(updated.Subcategories) != len(want) {
			t.Fatalf("UpdateCategory() = %v, want %v", updated.Subcategories, want)
		}
		for i := range want {
			if updated.Subcategories[i] != want[i] {
				t.Errorf("UpdateCategory() = %v, want %v", updated.Subcategories, want)
			}
		}

		if _, err := store.UpdateCategory(ctx, "postcard", []string{"a", "A"}); !errors.Is(err, core.ErrInvalid) {
			t.Errorf("duplicate subcategories error = %v, want ErrInvalid", err)
		}
		if _, err := store.UpdateCategory(ctx, "nope", nil); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("UpdateCategory() unknown error = %v, want ErrNotFound", err)
		}

		got, err := store.GetCategory(ctx, "postcard")
		if err != nil || got.Subcategories[1] != "birthday" {
			t.Errorf("GetCategory() = %+v, %v", got, err)
		}

		list, _ := store.ListCategories(ctx)
		if len(list) != 2 || list[0].Name != "postcard" || list[1].Name != "banner" {
			t.Errorf("ListCategories() mismatch: %+v", list)
		}
	})

	t.Run("ConcurrentCreate", func(t *testing.T) {
		store := newStore(t)
		const n = 10
		var wg sync.WaitGroup
		var mu sync.Mutex
		ids := map[int]bool{}

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := store.CreateDesign(ctx, flyer("concurrent"))
				if err != nil {
					t.Errorf("concurrent CreateDesign() failed: %v", err)
					return
				}
				mu.Lock()
				ids[d.ID] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		if len(ids) != n {
			t.Errorf("Expected %d unique IDs, got %d", n, len(ids))
		}
	})
}

func names(designs []*core.Design) []string {
	out := make([]string, 0, len(designs))
	for _, d := range designs {
		out = append(out, d.Name)
	}
	return out
}
