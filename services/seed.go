package services

import (
	"context"
	_ "embed"
	"fmt"

	"plated-rewards/models"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog/catalog.yaml
var defaultCatalog []byte

// Catalog is the static content the service ships with.
type Catalog struct {
	SkillTracks   []CatalogTrack       `yaml:"skill_tracks"`
	ChaosRotation []ChaosRotationEntry `yaml:"chaos_rotation"`
	Badges        []CatalogBadge       `yaml:"badges"`
}

type CatalogTrack struct {
	Name         string `yaml:"name"`
	Slug         string `yaml:"slug"`
	Description  string `yaml:"description"`
	Icon         string `yaml:"icon"`
	DisplayOrder int    `yaml:"display_order"`
}

type ChaosRotationEntry struct {
	Ingredient string  `yaml:"ingredient"`
	IconEmoji  string  `yaml:"icon_emoji"`
	Multiplier float64 `yaml:"multiplier"`
}

type CatalogBadge struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	IconEmoji   string `yaml:"icon_emoji"`
	Rarity      string `yaml:"rarity"`
}

// SeedReport counts rows inserted by SeedCatalog.
type SeedReport struct {
	Tracks int64
	Badges int64
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range c.SkillTracks {
		t := &c.SkillTracks[i]
		if t.Name == "" {
			return nil, fmt.Errorf("skill track %d has no name", i)
		}
		if t.Slug == "" {
			t.Slug = slug.Make(t.Name)
		}
	}
	for i, e := range c.ChaosRotation {
		if e.Ingredient == "" {
			return nil, fmt.Errorf("chaos rotation entry %d has no ingredient", i)
		}
		if e.Multiplier < 1 || e.Multiplier > MaxChaosMultiplier {
			return nil, fmt.Errorf("chaos rotation entry %q: multiplier %.2f is outside [1, %.0f]", e.Ingredient, e.Multiplier, MaxChaosMultiplier)
		}
	}
	for i, b := range c.Badges {
		if b.Code == "" || b.Name == "" {
			return nil, fmt.Errorf("badge %d needs code and name", i)
		}
	}
	return &c, nil
}

// SeedCatalog inserts tracks and badges that are not present yet. Existing rows
// (matched by slug or code) are left untouched.
func SeedCatalog(ctx context.Context, db *gorm.DB, c *Catalog) (SeedReport, error) {
	var report SeedReport
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range c.SkillTracks {
			row := models.SkillTrack{
				Slug:         t.Slug,
				Name:         t.Name,
				Description:  t.Description,
				Icon:         t.Icon,
				DisplayOrder: t.DisplayOrder,
			}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("seed track %q: %w", t.Slug, res.Error)
			}
			report.Tracks += res.RowsAffected
		}
		for _, b := range c.Badges {
			row := models.Badge{
				Code:        b.Code,
				Name:        b.Name,
				Description: b.Description,
				IconEmoji:   b.IconEmoji,
				Rarity:      b.Rarity,
			}
			if row.Rarity == "" {
				row.Rarity = "common"
			}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("seed badge %q: %w", b.Code, res.Error)
			}
			report.Badges += res.RowsAffected
		}
		return nil
	})
	return report, err
}
