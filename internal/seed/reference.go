package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed reference.yml
var referenceYAML []byte

// ReferenceCategory is a catalog category with its subcategories.
type ReferenceCategory struct {
	Name        string              `yaml:"name"`
	Slug        string              `yaml:"slug"`
	Description string              `yaml:"description"`
	Children    []ReferenceCategory `yaml:"children"`
}

// ReferenceRegion is a region and the cities in it.
type ReferenceRegion struct {
	Name   string   `yaml:"name"`
	Cities []string `yaml:"cities"`
}

// ReferenceData is the fixed data every installation starts with.
type ReferenceData struct {
	Regions           []ReferenceRegion   `yaml:"regions"`
	ProfessionalAreas []string            `yaml:"professional_areas"`
	Attributes        []string            `yaml:"attributes"`
	Categories        []ReferenceCategory `yaml:"categories"`
}

// LoadReference parses raw, or the built-in reference data when raw is empty.
func LoadReference(raw []byte) (*ReferenceData, error) {
	if len(raw) == 0 {
		raw = referenceYAML
	}
	var data ReferenceData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	return &data, nil
}

// Reference stores regions, cities, professional areas, attributes and the
// category tree. Running it again updates names and descriptions in place.
func Reference(ctx context.Context, db *gorm.DB, data *ReferenceData) error {
	if data == nil {
		var err error
		if data, err = LoadReference(nil); err != nil {
			return err
		}
	}

	locations := repository.NewLocationRepository(db)
	for _, r := range data.Regions {
		region, err := locations.EnsureRegion(ctx, r.Name)
		if err != nil {
			return fmt.Errorf("region %q: %w", r.Name, err)
		}
		for _, name := range r.Cities {
			if _, err := locations.EnsureCity(ctx, name, &region.ID); err != nil {
				return fmt.Errorf("city %q: %w", name, err)
			}
		}
	}
	for _, name := range data.ProfessionalAreas {
		if _, err := locations.EnsureArea(ctx, name); err != nil {
			return fmt.Errorf("professional area %q: %w", name, err)
		}
	}

	for _, name := range data.Attributes {
		attr := models.Attribute{Name: name}
		if err := db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&attr).Error; err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
	}

	for i, c := range data.Categories {
		if err := upsertCategory(ctx, db, c, nil, i); err != nil {
			return err
		}
	}
	return nil
}

func upsertCategory(ctx context.Context, db *gorm.DB, item ReferenceCategory, parentID *uint, order int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category := models.Category{
			ParentID:    parentID,
			Name:        item.Name,
			Slug:        item.Slug,
			Description: item.Description,
			SortOrder:   order,
			IsActive:    true,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "parent_id", "sort_order", "updated_at"}),
		}).Create(&category).Error; err != nil {
			return fmt.Errorf("category %q: %w", item.Slug, err)
		}

		if category.ID == 0 {
			if err := tx.Where("slug = ?", item.Slug).First(&category).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("category %q vanished after upsert", item.Slug)
				}
				return err
			}
		}

		for i, child := range item.Children {
			if err := upsertCategory(ctx, tx, child, &category.ID, i); err != nil {
				return err
			}
		}
		return nil
	})
}
