package canvas

import (
	"errors"
	"fmt"
	"marketmaster/core"
	"sync"
)

var (
	// ErrUnlicensed is returned by CreateScene when no license key is configured.
	ErrUnlicensed = errors.New("canvas engine: missing license key")
	ErrBadSize    = errors.New("canvas engine: scene dimensions must be positive")
	ErrDisposed   = errors.New("canvas engine: scene disposed")
	ErrNoNode     = errors.New("canvas engine: no such node")
)

// Headless is an in-process Engine. It keeps a scene graph, supports hit
// testing and simulates the selection and modification a user would make.
type Headless struct {
	licenseKey string

	mu   sync.Mutex
	open int
}

func NewHeadless(licenseKey string) *Headless {
	return &Headless{licenseKey: licenseKey}
}

// OpenScenes returns the number of scenes created and not yet disposed.
func (h *Headless) OpenScenes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

func (h *Headless) CreateScene(width, height int) (Scene, error) {
	if h.licenseKey == "" {
		return nil, ErrUnlicensed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrBadSize)
	}
	h.mu.Lock()
	h.open++
	h.mu.Unlock()
	return &HeadlessScene{
		engine:   h,
		Width:    width,
		Height:   height,
		handlers: make(map[Event][]Handler),
	}, nil
}

func (h *Headless) release() {
	h.mu.Lock()
	h.open--
	h.mu.Unlock()
}

type headlessNode struct {
	tag   string
	kind  core.ObjectType
	props core.Patch
}

func (n *headlessNode) Tag() string { return n.tag }
func (n *headlessNode) Kind() core.ObjectType { return n.kind }
func (n *headlessNode) Snapshot() core.Patch { return core.Patch{}.Merge(n.props) }

// bounds returns the axis aligned box of the node, ignoring rotation.
func (n *headlessNode) bounds() (left, top, right, bottom float64) {
	p := n.props
	left, top = value(p.Left), value(p.Top)
	sx, sy := valueOr(p.ScaleX, 1), valueOr(p.ScaleY, 1)
	var w, h float64
	switch n.kind {
	case core.TypeText:
		w = value(p.Width)
		h = valueOr(p.FontSize, DefaultFontSize) * valueOr(p.LineHeight, 1.16)
	case core.TypeRect:
		w, h = value(p.Width), value(p.Height)
	case core.TypeCircle:
		w = 2 * value(p.Radius)
		h = w
	}
	return left, top, left + w*sx, top + h*sy
}

// HeadlessScene is the Scene returned by Headless.
type HeadlessScene struct {
	engine        *Headless
	Width, Height int

	mu       sync.Mutex
	nodes    []*headlessNode
	selected *headlessNode
	handlers map[Event][]Handler
	renders  int
	disposed bool
}

func (s *HeadlessScene) Add(spec Spec) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, ErrDisposed
	}
	n := &headlessNode{tag: spec.Tag, kind: spec.Kind, props: core.Patch{}.Merge(spec.Props)}
	s.nodes = append(s.nodes, n)
	return n, nil
}

// Clear drops every node and the selection without emitting events.
func (s *HeadlessScene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = nil
	s.selected = nil
}

func (s *HeadlessScene) Render() {
	s.mu.Lock()
	s.renders++
	s.mu.Unlock()
}

func (s *HeadlessScene) On(event Event, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], h)
}

// Dispose releases the scene. Further calls are no-ops.
func (s *HeadlessScene) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	s.nodes = nil
	s.selected = nil
	s.handlers = map[Event][]Handler{}
	s.mu.Unlock()
	s.engine.release()
	return nil
}

// Disposed reports whether Dispose has been called.
func (s *HeadlessScene) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Renders counts Render calls.
func (s *HeadlessScene) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// Nodes returns the scene graph in paint order.
func (s *HeadlessScene) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n
	}
	return out
}

func (s *HeadlessScene) findLocked(tag string) *headlessNode {
	for _, n := range s.nodes {
		if n.tag == tag {
			return n
		}
	}
	return nil
}

// HitTest returns the topmost node containing the point.
func (s *HeadlessScene) HitTest(x, y float64) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.hitLocked(x, y); n != nil {
		return n, true
	}
	return nil, false
}

func (s *HeadlessScene) hitLocked(x, y float64) *headlessNode {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		l, t, r, b := s.nodes[i].bounds()
		if x >= l && x <= r && y >= t && y <= b {
			return s.nodes[i]
		}
	}
	return nil
}

// Select selects the node with tag, emitting selection:created or
// selection:updated.
func (s *HeadlessScene) Select(tag string) error {
	s.mu.Lock()
	n := s.findLocked(tag)
	if n == nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", tag, ErrNoNode)
	}
	return s.selectLocked(n)
}

// Click selects the topmost node under the point, or clears the selection
// when the point is empty canvas.
func (s *HeadlessScene) Click(x, y float64) {
	s.mu.Lock()
	if n := s.hitLocked(x, y); n != nil {
		_ = s.selectLocked(n)
		return
	}
	s.mu.Unlock()
	s.Deselect()
}

// selectLocked is entered with s.mu held and releases it.
func (s *HeadlessScene) selectLocked(n *headlessNode) error {
	event := EventSelectionCreated
	if s.selected != nil {
		event = EventSelectionUpdated
	}
	s.selected = n
	handlers := append([]Handler(nil), s.handlers[event]...)
	s.mu.Unlock()

	emit(handlers, []Node{n})
	return nil
}

// Deselect clears the selection, emitting selection:cleared if there was one.
func (s *HeadlessScene) Deselect() {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return
	}
	s.selected = nil
	handlers := append([]Handler(nil), s.handlers[EventSelectionCleared]...)
	s.mu.Unlock()

	emit(handlers, nil)
}

// Modify applies a user edit (drag, resize, rotate) to a node and emits
// object:modified.
func (s *HeadlessScene) Modify(tag string, patch core.Patch) error {
	s.mu.Lock()
	n := s.findLocked(tag)
	if n == nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", tag, ErrNoNode)
	}
	n.props = n.props.Merge(patch)
	handlers := append([]Handler(nil), s.handlers[EventObjectModified]...)
	s.mu.Unlock()

	emit(handlers, []Node{n})
	return nil
}

func emit(handlers []Handler, nodes []Node) {
	for _, h := range handlers {
		h(nodes)
	}
}

func value(v *float64) float64 { return valueOr(v, 0) }

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
