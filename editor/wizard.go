package editor

import (
	"context"
	"errors"
	"fmt"
	"marketmaster/composer"
	"marketmaster/core"
	"sync"

	"github.com/sirupsen/logrus"
)

// Step is the wizard page currently shown.
type Step int

const (
	StepCategory Step = iota + 1
	StepTemplate
	StepProperty
)

var ErrNoTemplate = errors.New("no template selected")

// TemplateSource lists the templates of a category.
type TemplateSource interface {
	DesignsByCategory(ctx context.Context, category string) ([]*core.Design, error)
}

// Wizard walks a user through category, template and listing selection and
// then seeds a Store with the composed design.
type Wizard struct {
	store  *Store
	source TemplateSource

	mu         sync.Mutex
	step       Step
	category   string
	generation uint64
	loading    bool
	templates  []*core.Design
	loadErr    error
	template   *core.Design
	property   *core.Property
}

func NewWizard(store *Store, source TemplateSource) *Wizard {
	return &Wizard{store: store, source: source, step: StepCategory}
}

// Step returns the current page.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Category returns the selected category.
func (w *Wizard) Category() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.category
}

// Templates returns the templates of the selected category, whether a fetch
// is still in flight and the error of the last fetch.
func (w *Wizard) Templates() ([]*core.Design, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*core.Design, len(w.templates))
	for i, d := range w.templates {
		out[i] = d.Clone()
	}
	return out, w.loading, w.loadErr
}

// SelectCategory moves to the template step and fetches the category's
// templates in the background. The returned channel is closed once this
// fetch has settled. A result that arrives after a newer SelectCategory or
// Reset is dropped.
func (w *Wizard) SelectCategory(ctx context.Context, category string) <-chan struct{} {
	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.category = category
	w.step = StepTemplate
	w.loading = true
	w.templates = nil
	w.loadErr = nil
	w.template = nil
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		templates, err := w.source.DesignsByCategory(ctx, category)

		w.mu.Lock()
		defer w.mu.Unlock()
		if gen != w.generation {
			logrus.WithFields(logrus.Fields{
				"category":   category,
				"generation": gen,
			}).Debug("Dropping superseded template response")
			return
		}
		w.loading = false
		if err != nil {
			w.loadErr = fmt.Errorf("fetch templates for %s: %w", category, err)
			return
		}
		w.templates = templates
	}()
	return done
}

// SelectTemplate picks one of the loaded templates by id.
func (w *Wizard) SelectTemplate(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.templates {
		if d.ID == id {
			w.template = d.Clone()
			w.step = StepProperty
			return nil
		}
	}
	return fmt.Errorf("template %d in %s: %w", id, w.category, core.ErrNotFound)
}

// SelectProperty picks the listing to merge in. nil means none.
func (w *Wizard) SelectProperty(p *core.Property) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p == nil {
		w.property = nil
		return
	}
	cp := *p
	w.property = &cp
}

// Create composes the chosen template with the chosen listing, loads the
// result into the Store and resets the wizard.
func (w *Wizard) Create() error {
	w.mu.Lock()
	template, property := w.template, w.property
	w.mu.Unlock()
	if template == nil {
		return ErrNoTemplate
	}

	draft := composer.FromTemplate(template, property)
	w.store.SetCanvasProps(core.CanvasPropsPatch{
		Width:    &draft.Props.Width,
		Height:   &draft.Props.Height,
		Category: &draft.Props.Category,
	})
	w.store.SetCanvasObjects(draft.Objects)

	logrus.WithFields(logrus.Fields{
		"template_id": template.ID,
		"category":    template.Category,
		"merged":      property != nil,
	}).Info("Design created from template")
	w.Reset()
	return nil
}

// Reset returns to the first step and drops any fetch still in flight.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.step = StepCategory
	w.category = ""
	w.loading = false
	w.templates = nil
	w.loadErr = nil
	w.template = nil
	w.property = nil
}
