package commands

import (
	"fmt"
	"path/filepath"

	"github.com/funnelforge/funnelforge/internal/config"
)

// loadSiteConfig loads the config for a site directory and resolves
// relative store paths against that directory, so commands work without
// changing the working directory.
func loadSiteConfig(dir string) (*config.Config, error) {
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	switch cfg.StoreType() {
	case "file":
		cfg.Store.Dir = resolveUnder(dir, cfg.PagesDir())
	case "sqlite":
		cfg.Store.DB = resolveUnder(dir, cfg.DBPath())
	}
	return cfg, nil
}

func resolveUnder(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
