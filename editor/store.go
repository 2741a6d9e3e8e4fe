// Package editor holds the in-progress design being edited and the wizard
// that starts a new one.
package editor

import (
	"crypto/rand"
	"io"
	"marketmaster/core"
	"sync"

	"github.com/oklog/ulid/v2"
)

// IDPrefix starts every generated canvas object id.
const IDPrefix = "obj-"

// DefaultCanvasProps is the canvas a fresh Store starts with.
var DefaultCanvasProps = core.CanvasProps{Width: 600, Height: 800, Category: core.CategorySignboard}

// State is a snapshot of the Store. Snapshots share nothing with the Store.
type State struct {
	Props    core.CanvasProps
	Objects  []core.CanvasObject
	Selected *core.SelectedElement
}

// Change reports which parts of State a call touched.
type Change struct {
	Props     bool
	Objects   bool
	Selection bool
}

// Listener is called once per Store call, after the call has been applied.
type Listener func(State, Change)

// Store is the single source of truth for the design being edited.
type Store struct {
	mu       sync.Mutex
	props    core.CanvasProps
	objects  []core.CanvasObject
	selected *core.SelectedElement

	entropy io.Reader

	listeners  map[int]Listener
	listenerID int
}

// NewStore returns a Store with the default canvas and no objects.
func NewStore() *Store {
	return &Store{
		props:     DefaultCanvasProps,
		objects:   []core.CanvasObject{},
		entropy:   ulid.Monotonic(rand.Reader, 0),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenerID++
	id := s.listenerID
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Props:    s.props,
		Objects:  core.CloneObjects(s.objects),
		Selected: s.selected.Clone(),
	}
}

// update runs fn under the lock, then notifies every listener outside it.
func (s *Store) update(fn func() Change) {
	s.mu.Lock()
	change := fn()
	state := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 1; id <= s.listenerID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(state, change)
	}
}

// newIDLocked returns a fresh id. ulid's monotonic entropy keeps ids distinct
// and increasing within the same millisecond.
func (s *Store) newIDLocked() string {
	return IDPrefix + ulid.MustNew(ulid.Now(), s.entropy).String()
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, o := range s.objects {
		if o.ObjectID() == id {
			return i
		}
	}
	return -1
}

// SetCanvasProps shallow-merges patch into the canvas props.
func (s *Store) SetCanvasProps(patch core.CanvasPropsPatch) {
	s.update(func() Change {
		s.props = s.props.Apply(patch)
		return Change{Props: true}
	})
}

// SetCanvasObjects replaces the object list. Objects without an id get one.
func (s *Store) SetCanvasObjects(objects []core.CanvasObject) {
	s.update(func() Change {
		s.objects = core.CloneObjects(objects)
		for _, o := range s.objects {
			if o.ObjectID() == "" {
				o.SetID(s.newIDLocked())
			}
		}
		return Change{Objects: true}
	})
}

// AddCanvasObject appends a copy of obj and returns its id.
func (s *Store) AddCanvasObject(obj core.CanvasObject) string {
	var id string
	s.update(func() Change {
		if obj == nil {
			return Change{}
		}
		o := obj.Clone()
		if o.ObjectID() == "" {
			o.SetID(s.newIDLocked())
		}
		id = o.ObjectID()
		s.objects = append(s.objects, o)
		return Change{Objects: true}
	})
	return id
}

// UpdateCanvasObject merges patch into the object with id. Unknown ids are ignored.
func (s *Store) UpdateCanvasObject(id string, patch core.Patch) {
	s.update(func() Change {
		i := s.indexLocked(id)
		if i < 0 {
			return Change{}
		}
		o := s.objects[i].Clone()
		o.Apply(patch)
		s.objects[i] = o
		return Change{Objects: true}
	})
}

// DeleteCanvasObject removes the object with id. Unknown ids are ignored.
func (s *Store) DeleteCanvasObject(id string) {
	s.update(func() Change {
		i := s.indexLocked(id)
		if i < 0 {
			return Change{}
		}
		objects := make([]core.CanvasObject, 0, len(s.objects)-1)
		objects = append(objects, s.objects[:i]...)
		s.objects = append(objects, s.objects[i+1:]...)
		return Change{Objects: true}
	})
}

// SetSelectedElement replaces the selection. nil clears it.
func (s *Store) SetSelectedElement(e *core.SelectedElement) {
	s.update(func() Change {
		s.selected = e.Clone()
		return Change{Selection: true}
	})
}

// UpdateSelectedElement merges patch into the selection and into the object
// it mirrors. Without a selection nothing happens.
func (s *Store) UpdateSelectedElement(patch core.Patch) {
	s.update(func() Change {
		if s.selected == nil {
			return Change{}
		}
		s.selected.Props = s.selected.Props.Merge(patch)
		change := Change{Selection: true}
		if i := s.indexLocked(s.selected.ID); i >= 0 {
			o := s.objects[i].Clone()
			o.Apply(patch)
			s.objects[i] = o
			change.Objects = true
		}
		return change
	})
}
