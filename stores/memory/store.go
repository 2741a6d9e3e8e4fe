package memory

import (
	"context"
	"fmt"
	"marketmaster/core"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// memStore implements both DesignStore and CategoryStore for in-memory storage.
// Everything is lost when the process exits.
type memStore struct {
	mu sync.RWMutex

	designs     map[int]*core.Design
	designOrder []int
	nextDesign  int

	categories    map[string]*core.Category
	categoryOrder []string
	nextCategory  int

	now func() time.Time
}

// NewStore creates a new, empty in-memory store.
func NewStore() *memStore {
	return &memStore{
		designs:      make(map[int]*core.Design),
		nextDesign:   1,
		categories:   make(map[string]*core.Category),
		nextCategory: 1,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ListDesigns returns every design in insertion order. Part of the DesignStore interface.
func (s *memStore) ListDesigns(ctx context.Context) ([]*core.Design, error) {
	return s.filterDesigns(func(*core.Design) bool { return true }), nil
}

func (s *memStore) DesignsByCategory(ctx context.Context, category string) ([]*core.Design, error) {
	designs := s.filterDesigns(func(d *core.Design) bool { return d.Category == category })
	logrus.WithField("category", category).Debugf("Listed %d designs", len(designs))
	return designs, nil
}

func (s *memStore) DesignsBySubcategory(ctx context.Context, category, subcategory string) ([]*core.Design, error) {
	return s.filterDesigns(func(d *core.Design) bool {
		if d.Category != category {
			return false
		}
		if subcategory == "" || subcategory == core.SubcategoryAll {
			return true
		}
		return d.Subcategory != nil && *d.Subcategory == subcategory
	}), nil
}

func (s *memStore) filterDesigns(keep func(*core.Design) bool) []*core.Design {
	s.mu.RLock()
	defer s.mu.RUnlock()

	designs := make([]*core.Design, 0, len(s.designOrder))
	for _, id := range s.designOrder {
		d := s.designs[id]
		if keep(d) {
			designs = append(designs, d.Clone())
		}
	}
	return designs
}

// GetDesign returns a single design by id. Part of the DesignStore interface.
func (s *memStore) GetDesign(ctx context.Context, id int) (*core.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("design_id", id)
	d, ok := s.designs[id]
	if !ok {
		log.Debug("Design with specified ID not found")
		return nil, fmt.Errorf("design with id %d: %w", id, core.ErrNotFound)
	}
	return d.Clone(), nil
}

// CreateDesign stores a new design under the next id. Part of the DesignStore interface.
func (s *memStore) CreateDesign(ctx context.Context, design *core.NewDesign) (*core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextDesign
	s.nextDesign++

	d := design.Build(id, s.now())
	s.designs[id] = d
	s.designOrder = append(s.designOrder, id)

	logrus.WithFields(logrus.Fields{
		"design_id": id,
		"category":  d.Category,
		"objects":   len(d.Content.Objects),
	}).Info("Design created successfully")
	return d.Clone(), nil
}

// UpdateDesign merges the patch into an existing design. Part of the DesignStore interface.
func (s *memStore) UpdateDesign(ctx context.Context, id int, patch *core.DesignPatch) (*core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("design_id", id)
	existing, ok := s.designs[id]
	if !ok {
		log.Warn("Design not found for update")
		return nil, fmt.Errorf("design with id %d: %w", id, core.ErrNotFound)
	}

	updated := patch.Apply(existing, s.now())
	s.designs[id] = updated
	log.Info("Design updated successfully")
	return updated.Clone(), nil
}

// DeleteDesign removes a design and reports whether it existed. Part of the DesignStore interface.
func (s *memStore) DeleteDesign(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("design_id", id)
	if _, ok := s.designs[id]; !ok {
		log.Warn("Design not found for deletion")
		return false, nil
	}

	delete(s.designs, id)
	for i, v := range s.designOrder {
		if v == id {
			s.designOrder = append(s.designOrder[:i], s.designOrder[i+1:]...)
			break
		}
	}
	log.Info("Design deleted successfully")
	return true, nil
}

// ListCategories returns every category in creation order. Part of the CategoryStore interface.
func (s *memStore) ListCategories(ctx context.Context) ([]*core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]*core.Category, 0, len(s.categoryOrder))
	for _, name := range s.categoryOrder {
		categories = append(categories, s.categories[name].Clone())
	}
	return categories, nil
}

func (s *memStore) GetCategory(ctx context.Context, name string) (*core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[name]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", name, core.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *memStore) CreateCategory(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	normalized, err := core.NormalizeSubcategories(subcategories)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[name]; exists {
		return nil, fmt.Errorf("category %s: %w", name, core.ErrAlreadyExists)
	}

	c := &core.Category{ID: s.nextCategory, Name: name, Subcategories: normalized}
	s.nextCategory++
	s.categories[name] = c
	s.categoryOrder = append(s.categoryOrder, name)

	logrus.WithFields(logrus.Fields{
		"category":      name,
		"subcategories": len(normalized),
	}).Info("Category created successfully")
	return c.Clone(), nil
}

func (s *memStore) UpdateCategory(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	normalized, err := core.NormalizeSubcategories(subcategories)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[name]
	if !ok {
		logrus.WithField("category", name).Warn("Category not found for update")
		return nil, fmt.Errorf("category %s: %w", name, core.ErrNotFound)
	}

	updated := c.Clone()
	updated.Subcategories = normalized
	s.categories[name] = updated
	logrus.WithField("category", name).Info("Category updated successfully")
	return updated.Clone(), nil
}
