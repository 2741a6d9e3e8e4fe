package canvas

import (
	"fmt"
	"marketmaster/core"
	"marketmaster/editor"
	"sync"

	"github.com/sirupsen/logrus"
)

// Mode is the adapter's lifecycle state.
type Mode int

const (
	ModeUnmounted Mode = iota
	// ModeCanvas means a scene is live and mirrors the store.
	ModeCanvas
	// ModeFallback means the engine could not be started. The store stays
	// editable but nothing is rendered.
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModeCanvas:
		return "canvas"
	case ModeFallback:
		return "fallback"
	}
	return "unmounted"
}

// Object defaults applied when a field is unset.
const (
	DefaultText        = "Text"
	DefaultFontFamily  = "Inter"
	DefaultFontSize    = 20
	DefaultFontWeight  = "normal"
	DefaultTextFill    = "#2D2D2D"
	DefaultTextAlign   = "left"
	DefaultShapeWidth  = 100
	DefaultShapeHeight = 100
	DefaultShapeFill   = "#F3F4F6"
	DefaultShapeStroke = "#D1D5DB"
	DefaultStrokeWidth = 1
	DefaultRadius      = 50
)

// Adapter binds an Engine scene to an editor.Store.
type Adapter struct {
	engine Engine
	store  *editor.Store

	mu          sync.Mutex
	mode        Mode
	scene       Scene
	unsubscribe func()
	size        core.CanvasProps
	failure     error
	rebuilds    int
}

func NewAdapter(engine Engine, store *editor.Store) *Adapter {
	return &Adapter{engine: engine, store: store}
}

// Mode returns the current lifecycle state.
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Failure returns the error that put the adapter in fallback mode.
func (a *Adapter) Failure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failure
}

// Rebuilds counts full scene rebuilds since construction.
func (a *Adapter) Rebuilds() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rebuilds
}

// Mount creates a scene sized from the store and starts syncing. If the engine
// cannot be started the adapter releases what it acquired, enters
// ModeFallback and returns the cause. Mounting twice is a no-op.
func (a *Adapter) Mount() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeUnmounted {
		return nil
	}
	return a.mountLocked()
}

func (a *Adapter) mountLocked() error {
	// Changes made after this point reach onStoreChange, which waits on a.mu
	// until the mount below has finished.
	unsubscribe := a.store.Subscribe(a.onStoreChange)
	state := a.store.State()
	log := logrus.WithFields(logrus.Fields{
		"width":  state.Props.Width,
		"height": state.Props.Height,
	})

	scene, err := a.engine.CreateScene(state.Props.Width, state.Props.Height)
	if err != nil {
		unsubscribe()
		return a.fallbackLocked(log, fmt.Errorf("create scene: %w", err))
	}

	scene.On(EventSelectionCreated, a.onSelection)
	scene.On(EventSelectionUpdated, a.onSelection)
	scene.On(EventSelectionCleared, a.onSelectionCleared)
	scene.On(EventObjectModified, a.onModified)

	if err := build(scene, state.Objects); err != nil {
		unsubscribe()
		if derr := scene.Dispose(); derr != nil {
			log.WithError(derr).Warn("Failed to dispose scene")
		}
		return a.fallbackLocked(log, fmt.Errorf("build scene: %w", err))
	}

	a.scene = scene
	a.size = state.Props
	a.rebuilds++
	a.unsubscribe = unsubscribe
	a.mode = ModeCanvas
	a.failure = nil
	log.Debug("Canvas mounted")
	return nil
}

func (a *Adapter) fallbackLocked(log *logrus.Entry, err error) error {
	a.mode = ModeFallback
	a.failure = err
	log.WithError(err).Warn("Canvas engine unavailable, using the simplified editor")
	return err
}

// Unmount releases the scene and the store subscription. It is safe to call
// more than once and from any mode.
func (a *Adapter) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teardownLocked()
	a.mode = ModeUnmounted
	a.failure = nil
}

func (a *Adapter) teardownLocked() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.scene != nil {
		if err := a.scene.Dispose(); err != nil {
			logrus.WithError(err).Warn("Failed to dispose scene")
		}
		a.scene = nil
	}
}

func (a *Adapter) onStoreChange(state editor.State, change editor.Change) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeCanvas {
		return
	}

	if change.Props && (state.Props.Width != a.size.Width || state.Props.Height != a.size.Height) {
		a.teardownLocked()
		a.mode = ModeUnmounted
		_ = a.mountLocked()
		return
	}
	if change.Objects {
		if err := build(a.scene, state.Objects); err != nil {
			logrus.WithError(err).Error("Failed to rebuild scene")
			return
		}
		a.rebuilds++
	}
}

func (a *Adapter) onSelection(nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	n := nodes[0]
	a.store.SetSelectedElement(&core.SelectedElement{
		ID:    n.Tag(),
		Type:  n.Kind(),
		Props: n.Snapshot(),
	})
}

func (a *Adapter) onSelectionCleared([]Node) {
	a.store.SetSelectedElement(nil)
}

func (a *Adapter) onModified(nodes []Node) {
	for _, n := range nodes {
		a.store.UpdateCanvasObject(n.Tag(), n.Snapshot())
	}
}

// build clears the scene and adds every renderable object in order.
func build(scene Scene, objects []core.CanvasObject) error {
	scene.Clear()
	for i, obj := range objects {
		spec, ok := SpecFor(obj)
		if !ok {
			continue
		}
		if spec.Tag == "" {
			spec.Tag = fmt.Sprintf("%s%d", editor.IDPrefix, i)
		}
		if _, err := scene.Add(spec); err != nil {
			return fmt.Errorf("add %s %s: %w", spec.Kind, spec.Tag, err)
		}
	}
	scene.Render()
	return nil
}

// SpecFor turns a store object into an engine spec with defaults filled in.
// Objects of unknown type report false.
func SpecFor(obj core.CanvasObject) (Spec, bool) {
	switch o := obj.(type) {
	case *core.Text:
		p := o.Snapshot()
		p.Text = orString(o.Text, DefaultText)
		p.FontFamily = orString(o.FontFamily, DefaultFontFamily)
		p.FontSize = orFloat(o.FontSize, DefaultFontSize)
		p.FontWeight = orString(o.FontWeight, DefaultFontWeight)
		p.Fill = orString(o.Fill, DefaultTextFill)
		p.TextAlign = orString(o.TextAlign, DefaultTextAlign)
		if o.LineHeight != 0 {
			p.LineHeight = core.F(o.LineHeight)
		}
		return Spec{Tag: o.ID, Kind: core.TypeText, Props: p}, true
	case *core.Rect:
		p := o.Snapshot()
		p.Width = orFloat(o.Width, DefaultShapeWidth)
		p.Height = orFloat(o.Height, DefaultShapeHeight)
		p.Fill = orString(o.Fill, DefaultShapeFill)
		p.Stroke = orString(o.Stroke, DefaultShapeStroke)
		p.StrokeWidth = orFloat(o.StrokeWidth, DefaultStrokeWidth)
		p.RX = core.F(o.RX)
		p.RY = core.F(o.RY)
		return Spec{Tag: o.ID, Kind: core.TypeRect, Props: p}, true
	case *core.Circle:
		p := o.Snapshot()
		p.Radius = orFloat(o.Radius, DefaultRadius)
		p.Fill = orString(o.Fill, DefaultShapeFill)
		p.Stroke = orString(o.Stroke, DefaultShapeStroke)
		p.StrokeWidth = orFloat(o.StrokeWidth, DefaultStrokeWidth)
		return Spec{Tag: o.ID, Kind: core.TypeCircle, Props: p}, true
	case *core.Unknown:
		return Spec{}, false
	}
	return Spec{}, false
}

func orString(v, def string) *string {
	if v == "" {
		return core.S(def)
	}
	return core.S(v)
}

func orFloat(v, def float64) *float64 {
	if v == 0 {
		return core.F(def)
	}
	return core.F(v)
}
