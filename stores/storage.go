package stores

import (
	"context"
	"fmt"
	"marketmaster/config"
	"marketmaster/core"
	"marketmaster/stores/filesystem"
	"marketmaster/stores/memory"
	"marketmaster/stores/seed"
	"marketmaster/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all store types.
type Store interface {
	core.DesignStore
	core.CategoryStore
}

// GetStore opens the backend named by cfg.StorageType and seeds it when asked to.
func GetStore(ctx context.Context, cfg *config.Config) (Store, error) {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		s, err := filesystem.NewStore(cfg.LocalStoragePath)
		if err != nil {
			return nil, fmt.Errorf("open filesystem store: %w", err)
		}
		store = s
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		s, err := sqlite.NewStore(cfg.DataSourceName)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = s
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")

	if cfg.SeedTemplates {
		data, err := seed.Default()
		if err != nil {
			return nil, err
		}
		if _, err := seed.Load(ctx, store, data); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
	}
	return store, nil
}
