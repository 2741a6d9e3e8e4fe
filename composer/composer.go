// Package composer merges a real-estate listing into a template's objects.
package composer

import (
	"fmt"
	"marketmaster/core"
	"strings"
)

// ForSale is the banner text that is never substituted.
const ForSale = "FOR SALE"

// Draft is what a template plus listing turn into before the editor opens.
type Draft struct {
	Props   core.CanvasProps
	Objects []core.CanvasObject
}

// Compose returns a copy of objects with listing details substituted into
// text objects. The first matching rule wins:
//
//   - text that is exactly "FOR SALE" is kept
//   - text containing both "BED" and "BATH" becomes the room summary
//   - text containing "ADDRESS" or "STREET" becomes the address
//
// With a nil property the objects are copied verbatim. objects is never modified.
func Compose(objects []core.CanvasObject, property *core.Property) []core.CanvasObject {
	out := core.CloneObjects(objects)
	if property == nil {
		return out
	}
	for _, obj := range out {
		text, ok := obj.(*core.Text)
		if !ok {
			continue
		}
		if replaced, ok := substitute(text.Text, property); ok {
			text.Text = replaced
		}
	}
	return out
}

func substitute(text string, p *core.Property) (string, bool) {
	switch {
	case text == ForSale:
		return text, false
	case strings.Contains(text, "BED") && strings.Contains(text, "BATH"):
		return RoomSummary(p), true
	case strings.Contains(text, "ADDRESS") || strings.Contains(text, "STREET"):
		return p.Address, true
	}
	return text, false
}

// RoomSummary formats the "{b} BED • {ba} BATH • {sqft} SQFT" line.
func RoomSummary(p *core.Property) string {
	return fmt.Sprintf("%d BED • %g BATH • %d SQFT", p.Bedrooms, p.Bathrooms, p.SquareFeet)
}

// FromTemplate prepares a new design from a template, optionally merged with a listing.
func FromTemplate(template *core.Design, property *core.Property) Draft {
	return Draft{
		Props: core.CanvasProps{
			Width:    template.Width,
			Height:   template.Height,
			Category: template.Category,
		},
		Objects: Compose(template.Content.Objects, property),
	}
}
