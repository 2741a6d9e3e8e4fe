// Package canvas keeps an interactive graphics engine scene in sync with an
// editor.Store.
package canvas

import (
	"marketmaster/core"
)

// Event names a scene notification.
type Event string

const (
	EventSelectionCreated Event = "selection:created"
	EventSelectionUpdated Event = "selection:updated"
	EventSelectionCleared Event = "selection:cleared"
	EventObjectModified   Event = "object:modified"
)

// Spec describes a node to add to a scene. Props is fully populated by the adapter.
type Spec struct {
	Tag   string
	Kind  core.ObjectType
	Props core.Patch
}

// Node is an engine object. Tag correlates it with the store object id.
type Node interface {
	Tag() string
	Kind() core.ObjectType
	// Snapshot returns the node's current rendered properties.
	Snapshot() core.Patch
}

// Handler receives the nodes an event is about. For selection:cleared the
// slice is empty.
type Handler func(nodes []Node)

// Scene is one engine canvas of a fixed size.
type Scene interface {
	Add(spec Spec) (Node, error)
	Clear()
	Render()
	On(event Event, h Handler)
	Dispose() error
}

// Engine creates scenes.
type Engine interface {
	CreateScene(width, height int) (Scene, error)
}
