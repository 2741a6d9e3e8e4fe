// Package seed loads the out-of-the-box categories and real-estate templates.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"marketmaster/core"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Data is the decoded seed file.
type Data struct {
	Categories []core.Category  `yaml:"categories"`
	Templates  []core.NewDesign `yaml:"templates"`
}

// Store is what Load writes into.
type Store interface {
	core.DesignStore
	core.CategoryStore
}

// Default decodes the embedded seed file.
func Default() (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(templatesYAML, &data); err != nil {
		return nil, fmt.Errorf("decode seed templates: %w", err)
	}
	return &data, nil
}

// Load writes the seed into the store unless the store already has categories.
// It reports whether anything was written.
func Load(ctx context.Context, store Store, data *Data) (bool, error) {
	existing, err := store.ListCategories(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		logrus.WithField("categories", len(existing)).Debug("Store already seeded")
		return false, nil
	}

	for _, c := range data.Categories {
		if _, err := store.CreateCategory(ctx, c.Name, c.Subcategories); err != nil {
			return false, fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	for i := range data.Templates {
		if _, err := store.CreateDesign(ctx, &data.Templates[i]); err != nil {
			return false, fmt.Errorf("seed template %q: %w", data.Templates[i].Name, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"categories": len(data.Categories),
		"templates":  len(data.Templates),
	}).Info("Seeded sample templates")
	return true, nil
}
