package repository

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// LocationRepository manages the reference data vacancies point at: regions,
// cities and professional areas.
type LocationRepository interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	ListCities(ctx context.Context) ([]models.City, error)
	ListAreas(ctx context.Context) ([]models.ProfessionalArea, error)
	EnsureRegion(ctx context.Context, name string) (*models.Region, error)
	EnsureCity(ctx context.Context, name string, regionID *uint) (*models.City, error)
	EnsureArea(ctx context.Context, name string) (*models.ProfessionalArea, error)
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository returns a LocationRepository backed by db.
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	regions := []models.Region{}
	if err := readDB(r.db).WithContext(ctx).Order("name ASC").Find(&regions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return regions, nil
}

// ListCities returns cities by name with their regions loaded.
func (r *locationRepository) ListCities(ctx context.Context) ([]models.City, error) {
	cities := []models.City{}
	if err := readDB(r.db).WithContext(ctx).Preload("Region").Order("name ASC").Find(&cities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cities, nil
}

func (r *locationRepository) ListAreas(ctx context.Context) ([]models.ProfessionalArea, error) {
	areas := []models.ProfessionalArea{}
	if err := readDB(r.db).WithContext(ctx).Order("name ASC").Find(&areas).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return areas, nil
}

func (r *locationRepository) EnsureRegion(ctx context.Context, name string) (*models.Region, error) {
	region := models.Region{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&region).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &region, nil
}

// EnsureCity returns the city called name, creating it in regionID if needed.
// An existing city keeps its region.
func (r *locationRepository) EnsureCity(ctx context.Context, name string, regionID *uint) (*models.City, error) {
	city := models.City{Name: name, RegionID: regionID}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&city).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &city, nil
}

func (r *locationRepository) EnsureArea(ctx context.Context, name string) (*models.ProfessionalArea, error) {
	area := models.ProfessionalArea{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&area).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &area, nil
}
