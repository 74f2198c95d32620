package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/kendall-kelly/restaurant-pos-api/models"
	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenuYAML []byte

// SeedMenu is the on-disk shape of a menu to preload
type SeedMenu struct {
	Categories []SeedCategory `yaml:"categories"`
}

// SeedCategory is a category together with its items
type SeedCategory struct {
	models.Category `yaml:",inline"`
	Items           []models.MenuItem `yaml:"items"`
}

// ParseSeedMenu decodes a YAML menu document
func ParseSeedMenu(data []byte) (*SeedMenu, error) {
	var menu SeedMenu
	if err := yaml.Unmarshal(data, &menu); err != nil {
		return nil, fmt.Errorf("failed to parse seed menu: %w", err)
	}
	for i, c := range menu.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("seed menu category %d has no name", i)
		}
		for j, item := range c.Items {
			if item.Name == "" {
				return nil, fmt.Errorf("seed menu item %d in %q has no name", j, c.Name)
			}
			if item.Price < 0 {
				return nil, fmt.Errorf("seed menu item %q has a negative price", item.Name)
			}
		}
	}
	return &menu, nil
}

// DefaultSeedMenu returns the menu embedded in the binary
func DefaultSeedMenu() (*SeedMenu, error) {
	return ParseSeedMenu(defaultMenuYAML)
}

// Seed inserts the menu when the store has no categories yet.
// It reports whether anything was written.
func Seed(ctx context.Context, store MenuStore, menu *SeedMenu) (bool, error) {
	existing, err := store.ListCategories(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, sc := range menu.Categories {
		category := sc.Category
		if err := store.CreateCategory(ctx, &category); err != nil {
			return false, fmt.Errorf("failed to seed category %q: %w", category.Name, err)
		}
		for _, item := range sc.Items {
			item.CategoryID = category.ID
			if err := store.CreateMenuItem(ctx, &item); err != nil {
				return false, fmt.Errorf("failed to seed menu item %q: %w", item.Name, err)
			}
		}
	}
	return true, nil
}
