package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// SubcategoryAll is the catch-all subcategory every category carries at index 0.
const SubcategoryAll = "all"

type (
	// Category is the first level of design classification.
	Category struct {
		ID            int      `json:"id"`
		Name          string   `json:"name" yaml:"name"`
		Subcategories []string `json:"subcategories" yaml:"subcategories"`
	}

	// CategoryStore persists categories keyed by name.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]*Category, error)
		GetCategory(ctx context.Context, name string) (*Category, error)
		// CreateCategory fails with ErrAlreadyExists if the name is taken.
		CreateCategory(ctx context.Context, name string, subcategories []string) (*Category, error)
		UpdateCategory(ctx context.Context, name string, subcategories []string) (*Category, error)
	}
)

var whitespace = regexp.MustCompile(`\s+`)

// FormatSubcategory lower-cases a subcategory name and joins words with hyphens.
func FormatSubcategory(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// NormalizeSubcategories formats every entry, drops blanks, rejects
// case-insensitive duplicates and places "all" first.
func NormalizeSubcategories(subcategories []string) ([]string, error) {
	out := make([]string, 0, len(subcategories)+1)
	out = append(out, SubcategoryAll)
	seen := map[string]bool{SubcategoryAll: true}
	for _, raw := range subcategories {
		name := FormatSubcategory(raw)
		if name == "" {
			continue
		}
		if name == SubcategoryAll {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("subcategory %q already exists: %w", name, ErrInvalid)
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// Clone returns a deep copy of the category.
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Subcategories = append([]string(nil), c.Subcategories...)
	return &cp
}
