// Package properties holds the static real-estate listings agents can merge
// into a template.
package properties

import (
	_ "embed"
	"fmt"
	"marketmaster/core"

	"gopkg.in/yaml.v3"
)

//go:embed listings.yaml
var listingsYAML []byte

// Catalog is a read-only set of listings.
type Catalog struct {
	listings []core.Property
	byID     map[int]int
}

// Default returns the embedded listings.
func Default() (*Catalog, error) {
	return Parse(listingsYAML)
}

// Parse decodes a YAML list of listings. Ids must be unique.
func Parse(data []byte) (*Catalog, error) {
	var listings []core.Property
	if err := yaml.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	c := &Catalog{listings: listings, byID: make(map[int]int, len(listings))}
	for i, p := range listings {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("listing %d: duplicate id: %w", p.ID, core.ErrInvalid)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// List returns a copy of every listing in file order.
func (c *Catalog) List() []core.Property {
	return append([]core.Property{}, c.listings...)
}

// Get returns the listing with id.
func (c *Catalog) Get(id int) (*core.Property, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("property with id %d: %w", id, core.ErrNotFound)
	}
	p := c.listings[i]
	return &p, nil
}
