package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when a design or category does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalid marks a payload that failed validation.
	ErrInvalid = errors.New("invalid")
)

// Design categories accepted by the API.
const (
	CategorySignboard = "signboard"
	CategoryBrochure  = "brochure"
	CategoryFlyer     = "flyer"
)

// DefaultDesignName is used when a design is created without a name.
const DefaultDesignName = "Untitled Design"

// DesignCategories lists the categories a design may belong to.
var DesignCategories = []string{CategorySignboard, CategoryBrochure, CategoryFlyer}

type (
	// Content is the canvas payload of a design.
	Content struct {
		Objects    []CanvasObject `json:"objects" yaml:"objects"`
		Background string         `json:"background,omitempty" yaml:"background,omitempty"`
	}

	// Design is a persisted marketing artifact, either a seeded template or a user design.
	Design struct {
		ID          int       `json:"id"`
		Name        string    `json:"name"`
		Category    string    `json:"category"`
		Subcategory *string   `json:"subcategory"`
		Content     Content   `json:"content"`
		Width       int       `json:"width"`
		Height      int       `json:"height"`
		Thumbnail   *string   `json:"thumbnail"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// NewDesign holds the client supplied fields of a design about to be created.
	NewDesign struct {
		Name        string  `json:"name" yaml:"name"`
		Category    string  `json:"category" yaml:"category"`
		Subcategory *string `json:"subcategory" yaml:"subcategory"`
		Content     Content `json:"content" yaml:"content"`
		Width       int     `json:"width" yaml:"width"`
		Height      int     `json:"height" yaml:"height"`
		Thumbnail   *string `json:"thumbnail" yaml:"thumbnail"`
	}

	// DesignPatch is a partial update. Nil pointers keep the stored value;
	// Subcategory and Thumbnail distinguish "absent" from an explicit null.
	DesignPatch struct {
		Name        *string        `json:"name,omitempty"`
		Category    *string        `json:"category,omitempty"`
		Subcategory NullableString `json:"subcategory"`
		Content     *Content       `json:"content,omitempty"`
		Width       *int           `json:"width,omitempty"`
		Height      *int           `json:"height,omitempty"`
		Thumbnail   NullableString `json:"thumbnail"`
	}

	// DesignStore persists designs keyed by a server assigned integer id.
	DesignStore interface {
		// ListDesigns returns every design in insertion order.
		ListDesigns(ctx context.Context) ([]*Design, error)
		DesignsByCategory(ctx context.Context, category string) ([]*Design, error)
		// DesignsBySubcategory filters by category and subcategory; "all" matches every subcategory.
		DesignsBySubcategory(ctx context.Context, category, subcategory string) ([]*Design, error)
		GetDesign(ctx context.Context, id int) (*Design, error)
		CreateDesign(ctx context.Context, design *NewDesign) (*Design, error)
		UpdateDesign(ctx context.Context, id int, patch *DesignPatch) (*Design, error)
		// DeleteDesign reports whether a design with the id existed.
		DeleteDesign(ctx context.Context, id int) (bool, error)
	}
)

// Build turns the payload into a Design stamped with id and creation time.
func (n *NewDesign) Build(id int, now time.Time) *Design {
	name := n.Name
	if name == "" {
		name = DefaultDesignName
	}
	return &Design{
		ID:          id,
		Name:        name,
		Category:    n.Category,
		Subcategory: emptyToNil(n.Subcategory),
		Content:     n.Content.Clone(),
		Width:       n.Width,
		Height:      n.Height,
		Thumbnail:   emptyToNil(n.Thumbnail),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply merges the patch into a copy of d. id and CreatedAt never change and
// UpdatedAt is moved to now, or kept if now would move it backwards.
func (p *DesignPatch) Apply(d *Design, now time.Time) *Design {
	updated := d.Clone()
	if p.Name != nil && *p.Name != "" {
		updated.Name = *p.Name
	}
	if p.Category != nil && *p.Category != "" {
		updated.Category = *p.Category
	}
	if p.Subcategory.Set {
		updated.Subcategory = cloneString(p.Subcategory.Value)
	}
	if p.Content != nil {
		updated.Content = p.Content.Clone()
	}
	if p.Width != nil && *p.Width > 0 {
		updated.Width = *p.Width
	}
	if p.Height != nil && *p.Height > 0 {
		updated.Height = *p.Height
	}
	if p.Thumbnail.Set {
		updated.Thumbnail = cloneString(p.Thumbnail.Value)
	}
	updated.UpdatedAt = Touch(d.UpdatedAt, now)
	return updated
}

// Touch returns now unless that would be earlier than prev.
func Touch(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

// Clone returns a deep copy of the design.
func (d *Design) Clone() *Design {
	if d == nil {
		return nil
	}
	c := *d
	c.Subcategory = cloneString(d.Subcategory)
	c.Thumbnail = cloneString(d.Thumbnail)
	c.Content = d.Content.Clone()
	return &c
}

// Clone returns a deep copy of the content.
func (c Content) Clone() Content {
	return Content{Objects: CloneObjects(c.Objects), Background: c.Background}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return cloneString(s)
}

// IsDesignCategory reports whether name is one of DesignCategories.
func IsDesignCategory(name string) bool {
	for _, c := range DesignCategories {
		if c == name {
			return true
		}
	}
	return false
}

// MarshalJSON emits only the fields the patch sets, so an unset Subcategory or
// Thumbnail is left out rather than sent as null.
func (p DesignPatch) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.Subcategory.Set {
		out["subcategory"] = p.Subcategory
	}
	if p.Content != nil {
		out["content"] = p.Content
	}
	if p.Width != nil {
		out["width"] = *p.Width
	}
	if p.Height != nil {
		out["height"] = *p.Height
	}
	if p.Thumbnail.Set {
		out["thumbnail"] = p.Thumbnail
	}
	return json.Marshal(out)
}
