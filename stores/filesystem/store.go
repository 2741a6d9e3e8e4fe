package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"marketmaster/core"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	designsDir    = "designs"
	categoriesDir = "categories"
	sequenceFile  = "sequence.json"
)

// sequence holds the next ids to hand out. It is persisted so ids are never
// reused after a delete or a restart.
type sequence struct {
	Design   int `json:"design"`
	Category int `json:"category"`
}

// fsStore keeps one JSON file per design and per category under basePath.
type fsStore struct {
	basePath string
	mu       sync.Mutex
	now      func() time.Time
}

// NewStore creates a new filesystem-based store rooted at basePath.
func NewStore(basePath string) (*fsStore, error) {
	for _, dir := range []string{designsDir, categoriesDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return &fsStore{
		basePath: basePath,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *fsStore) designPath(id int) string {
	return filepath.Join(s.basePath, designsDir, fmt.Sprintf("%08d.json", id))
}

func (s *fsStore) categoryPath(id int) string {
	return filepath.Join(s.basePath, categoriesDir, fmt.Sprintf("%08d.json", id))
}

// nextIDLocked reserves the next id of the given kind.
func (s *fsStore) nextIDLocked(kind func(*sequence) *int) (int, error) {
	path := filepath.Join(s.basePath, sequenceFile)
	seq := sequence{Design: 1, Category: 1}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &seq); err != nil {
			return 0, fmt.Errorf("decode %s: %w", sequenceFile, err)
		}
	case !os.IsNotExist(err):
		return 0, err
	}

	counter := kind(&seq)
	id := *counter
	*counter++
	if err := writeJSON(path, seq); err != nil {
		return 0, err
	}
	return id, nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readDir[T any](dir string, log *logrus.Entry) ([]*T, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*T{}, nil
		}
		log.WithError(err).Error("Failed to read directory")
		return nil, err
	}

	items := make([]*T, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read %s, skipping", file.Name())
			continue
		}
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal %s, skipping", file.Name())
			continue
		}
		items = append(items, &item)
	}
	return items, nil
}

func (s *fsStore) loadDesignsLocked() ([]*core.Design, error) {
	designs, err := readDir[core.Design](filepath.Join(s.basePath, designsDir), logrus.WithField("path", s.basePath))
	if err != nil {
		return nil, err
	}
	sort.Slice(designs, func(i, j int) bool { return designs[i].ID < designs[j].ID })
	return designs, nil
}

func (s *fsStore) loadDesignLocked(id int) (*core.Design, error) {
	data, err := os.ReadFile(s.designPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("design with id %d: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	var d core.Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode design %d: %w", id, err)
	}
	return &d, nil
}

func (s *fsStore) ListDesigns(ctx context.Context) ([]*core.Design, error) {
	return s.filterDesigns(func(*core.Design) bool { return true })
}

func (s *fsStore) DesignsByCategory(ctx context.Context, category string) ([]*core.Design, error) {
	return s.filterDesigns(func(d *core.Design) bool { return d.Category == category })
}

func (s *fsStore) DesignsBySubcategory(ctx context.Context, category, subcategory string) ([]*core.Design, error) {
	return s.filterDesigns(func(d *core.Design) bool {
		if d.Category != category {
			return false
		}
		if subcategory == "" || subcategory == core.SubcategoryAll {
			return true
		}
		return d.Subcategory != nil && *d.Subcategory == subcategory
	})
}

func (s *fsStore) filterDesigns(keep func(*core.Design) bool) ([]*core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadDesignsLocked()
	if err != nil {
		return nil, err
	}
	designs := make([]*core.Design, 0, len(all))
	for _, d := range all {
		if keep(d) {
			designs = append(designs, d)
		}
	}
	return designs, nil
}

func (s *fsStore) GetDesign(ctx context.Context, id int) (*core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDesignLocked(id)
	if err != nil {
		logrus.WithField("design_id", id).WithError(err).Debug("Failed to load design")
		return nil, err
	}
	return d, nil
}

func (s *fsStore) CreateDesign(ctx context.Context, design *core.NewDesign) (*core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextIDLocked(func(seq *sequence) *int { return &seq.Design })
	if err != nil {
		return nil, fmt.Errorf("reserve design id: %w", err)
	}
	d := design.Build(id, s.now())
	path := s.designPath(id)
	log := logrus.WithFields(logrus.Fields{
		"design_id": id,
		"file_path": path,
	})

	if err := writeJSON(path, d); err != nil {
		log.WithError(err).Error("Failed to create design")
		return nil, err
	}
	log.Info("Design created successfully")
	return d, nil
}

func (s *fsStore) UpdateDesign(ctx context.Context, id int, patch *core.DesignPatch) (*core.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("design_id", id)
	existing, err := s.loadDesignLocked(id)
	if err != nil {
		log.WithError(err).Warn("Design not found for update")
		return nil, err
	}

	updated := patch.Apply(existing, s.now())
	if err := writeJSON(s.designPath(id), updated); err != nil {
		log.WithError(err).Error("Failed to write design file")
		return nil, err
	}
	log.Info("Design updated successfully")
	return updated, nil
}

func (s *fsStore) DeleteDesign(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("design_id", id)
	if err := os.Remove(s.designPath(id)); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Design not found for deletion")
			return false, nil
		}
		log.WithError(err).Error("Failed to delete design file")
		return false, err
	}
	log.Info("Design deleted successfully")
	return true, nil
}

func (s *fsStore) loadCategoriesLocked() ([]*core.Category, error) {
	categories, err := readDir[core.Category](filepath.Join(s.basePath, categoriesDir), logrus.WithField("path", s.basePath))
	if err != nil {
		return nil, err
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *fsStore) findCategoryLocked(name string) (*core.Category, error) {
	categories, err := s.loadCategoriesLocked()
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category %s: %w", name, core.ErrNotFound)
}

func (s *fsStore) ListCategories(ctx context.Context) ([]*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCategoriesLocked()
}

func (s *fsStore) GetCategory(ctx context.Context, name string) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCategoryLocked(name)
}

func (s *fsStore) CreateCategory(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	normalized, err := core.NormalizeSubcategories(subcategories)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findCategoryLocked(name); err == nil {
		return nil, fmt.Errorf("category %s: %w", name, core.ErrAlreadyExists)
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	id, err := s.nextIDLocked(func(seq *sequence) *int { return &seq.Category })
	if err != nil {
		return nil, fmt.Errorf("reserve category id: %w", err)
	}
	c := &core.Category{ID: id, Name: name, Subcategories: normalized}
	if err := writeJSON(s.categoryPath(id), c); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"category":      name,
		"subcategories": len(normalized),
	}).Info("Category created successfully")
	return c, nil
}

func (s *fsStore) UpdateCategory(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	normalized, err := core.NormalizeSubcategories(subcategories)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.findCategoryLocked(name)
	if err != nil {
		logrus.WithField("category", name).Warn("Category not found for update")
		return nil, err
	}
	c.Subcategories = normalized
	if err := writeJSON(s.categoryPath(c.ID), c); err != nil {
		return nil, err
	}
	logrus.WithField("category", name).Info("Category updated successfully")
	return c, nil
}
