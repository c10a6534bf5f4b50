// Package seed fills the database with reference data and fake demo
// content for development and testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	NumProducts  int
	NumVacancies int
	ShouldClean  bool

	// SkipBcrypt hashes the shared password at minimum cost.
	SkipBcrypt bool
	// DryRun builds entities without writing them.
	DryRun   bool
	MaxDays  int
	RandSeed int64
}

// Result counts what Seed created.
type Result struct {
	Users     int
	Products  int
	Vacancies int
}

// Seed loads the reference data and then fake users, products and vacancies.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	log := middleware.Logger
	log.InfoContext(ctx, "seeding database",
		slog.Int("users", opts.NumUsers),
		slog.Int("products", opts.NumProducts),
		slog.Int("vacancies", opts.NumVacancies),
	)

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	if err := Reference(ctx, db, nil); err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}

	f := NewFactory(db, opts)
	res := &Result{}

	for i := 0; i < opts.NumUsers; i++ {
		if _, err := f.CreateUser(); err != nil {
			log.WarnContext(ctx, "skipping user", slog.String("error", err.Error()))
			continue
		}
		res.Users++
	}

	if opts.NumProducts > 0 {
		leaves, err := leafCategories(ctx, db)
		if err != nil {
			return nil, err
		}
		var attributes []models.Attribute
		if err := db.WithContext(ctx).Order("id").Find(&attributes).Error; err != nil {
			return nil, fmt.Errorf("load attributes: %w", err)
		}
		for i := 0; i < opts.NumProducts && len(leaves) > 0; i++ {
			if _, err := f.CreateProduct(&leaves[i%len(leaves)], attributes); err != nil {
				log.WarnContext(ctx, "skipping product", slog.String("error", err.Error()))
				continue
			}
			res.Products++
		}
	}

	if opts.NumVacancies > 0 {
		var cities []models.City
		var areas []models.ProfessionalArea
		if err := db.WithContext(ctx).Order("id").Find(&cities).Error; err != nil {
			return nil, fmt.Errorf("load cities: %w", err)
		}
		if err := db.WithContext(ctx).Order("id").Find(&areas).Error; err != nil {
			return nil, fmt.Errorf("load professional areas: %w", err)
		}
		for i := 0; i < opts.NumVacancies && len(cities) > 0 && len(areas) > 0; i++ {
			city, area := cities[i%len(cities)], areas[(i/len(cities))%len(areas)]
			if _, err := f.CreateVacancy(city.ID, area.ID); err != nil {
				return nil, err
			}
			res.Vacancies++
		}
	}

	log.InfoContext(ctx, "seeding completed",
		slog.Int("users", res.Users),
		slog.Int("products", res.Products),
		slog.Int("vacancies", res.Vacancies),
	)
	return res, nil
}

// leafCategories returns active categories without subcategories.
func leafCategories(ctx context.Context, db *gorm.DB) ([]models.Category, error) {
	var leaves []models.Category
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id NOT IN (?)", db.Model(&models.Category{}).Select("parent_id").Where("parent_id IS NOT NULL")).
		Order("id").
		Find(&leaves).Error
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return leaves, nil
}

// clearData deletes every row, children first.
func clearData(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
