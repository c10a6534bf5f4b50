package database

import "storefront/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM
// models, parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Attribute{},
		&models.Product{},
		&models.ProductNutrition{},
		&models.ProductAttribute{},
		&models.ProductImage{},
		&models.Region{},
		&models.City{},
		&models.ProfessionalArea{},
		&models.Vacancy{},
	}
}
