package repository

import (
	"context"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/observability"

	"gorm.io/gorm"
)

// VacancyFilter narrows the vacancy list. Zero values leave a dimension
// unrestricted.
type VacancyFilter struct {
	ListFilter
	CityID          uint
	AreaID          uint
	WorkSchedule    models.WorkSchedule
	ExperienceLevel models.ExperienceLevel
}

// VacancyFacets are the values the vacancy list can be narrowed by.
type VacancyFacets struct {
	ProfessionalAreas []models.ProfessionalArea `json:"professional_areas"`
	Cities            []CityOption              `json:"cities"`
	WorkSchedules     []models.Choice           `json:"work_schedules"`
	ExperienceLevels  []models.Choice           `json:"experience_levels"`
	SortOptions       []SortOption              `json:"sort_options"`
}

// CityOption is a city with its display name.
type CityOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// VacancyRepository reads and writes the vacancy board.
type VacancyRepository interface {
	All(ctx context.Context) ([]models.Vacancy, error)
	Filter(ctx context.Context, f VacancyFilter, p Pagination) (*Page[models.Vacancy], error)
	SortOptions() []SortOption
	GetActiveByID(ctx context.Context, id uint) (*models.Vacancy, error)
	Facets(ctx context.Context) (*VacancyFacets, error)
	Create(ctx context.Context, vacancy *models.Vacancy) error
	Update(ctx context.Context, vacancy *models.Vacancy) error
	Delete(ctx context.Context, id uint) error
}

type vacancyRepository struct {
	db        *gorm.DB
	locations LocationRepository
	log       *observability.RepoLogger
}

// NewVacancyRepository returns a VacancyRepository backed by db.
func NewVacancyRepository(db *gorm.DB) VacancyRepository {
	return &vacancyRepository{
		db:        db,
		locations: NewLocationRepository(db),
		log:       observability.NewRepoLogger("vacancies"),
	}
}

var vacancyReferenceFields = []uniqueField{
	{column: "city_id", field: "city_id", message: invalidChoice},
	{column: "professional_area_id", field: "professional_area_id", message: invalidChoice},
}

var vacancyDefaultOrder = []string{"vacancies.created_at DESC", "vacancies.title ASC", "vacancies.id ASC"}

var vacancySortOptions = sortOptions{
	{Key: "", Label: "Default"},
	{Key: "newest", Label: "Newest first", order: []string{"vacancies.created_at DESC", "vacancies.id DESC"}},
	{Key: "salary_desc", Label: "Highest salary first", order: []string{
		"COALESCE(vacancies.salary_to, vacancies.salary_from, 0) DESC",
		"vacancies.created_at DESC",
		"vacancies.id ASC",
	}},
	{Key: "title", Label: "By title", order: []string{"vacancies.title ASC", "vacancies.id ASC"}},
}

func withVacancyAssociations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("City.Region").Preload("ProfessionalArea")
}

// All returns every vacancy in default order.
func (r *vacancyRepository) All(ctx context.Context) ([]models.Vacancy, error) {
	defer observability.TrackQuery("select", "vacancies")()
	var vacancies []models.Vacancy
	tx := withVacancyAssociations(readDB(r.db).WithContext(ctx))
	for _, o := range vacancyDefaultOrder {
		tx = tx.Order(o)
	}
	if err := tx.Find(&vacancies).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return vacancies, nil
}

// Filter returns one page of vacancies matching f. Search looks at the title
// and both descriptions.
func (r *vacancyRepository) Filter(ctx context.Context, f VacancyFilter, p Pagination) (*Page[models.Vacancy], error) {
	q := listQuery{
		table: "vacancies",
		scope: func(tx *gorm.DB) *gorm.DB {
			tx = activeScope(tx, "vacancies", f.OnlyActive)
			tx = searchScope(tx, f.Search, "vacancies.title", "vacancies.description", "vacancies.short_description")
			if f.CityID != 0 {
				tx = tx.Where("vacancies.city_id = ?", f.CityID)
			}
			if f.AreaID != 0 {
				tx = tx.Where("vacancies.professional_area_id = ?", f.AreaID)
			}
			if f.WorkSchedule != "" {
				tx = tx.Where("vacancies.work_schedule = ?", f.WorkSchedule)
			}
			if f.ExperienceLevel != "" {
				tx = tx.Where("vacancies.experience_level = ?", f.ExperienceLevel)
			}
			return tx
		},
		preload: withVacancyAssociations,
		order:   vacancySortOptions.resolve(f.Sort, vacancyDefaultOrder),
	}
	return findPage[models.Vacancy](ctx, readDB(r.db), q, p)
}

// SortOptions lists the vacancy orderings with their labels.
func (r *vacancyRepository) SortOptions() []SortOption {
	return vacancySortOptions.public()
}

// GetActiveByID returns the vacancy when it is active.
func (r *vacancyRepository) GetActiveByID(ctx context.Context, id uint) (*models.Vacancy, error) {
	var vacancy models.Vacancy
	err := cache.Aside(ctx, cache.VacancyKey(id), &vacancy, cache.VacancyTTL, func() error {
		defer observability.TrackQuery("select", "vacancies")()
		err := withVacancyAssociations(readDB(r.db).WithContext(ctx)).
			Where("vacancies.is_active = ?", true).
			First(&vacancy, id).Error
		if err != nil {
			return notFoundOr(err, "Vacancy", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vacancy, nil
}

// Facets returns the filter values for the vacancy list.
func (r *vacancyRepository) Facets(ctx context.Context) (*VacancyFacets, error) {
	var facets VacancyFacets
	err := cache.Aside(ctx, cache.VacancyFacetsKey, &facets, cache.VacancyFacetTTL, func() error {
		areas, err := r.locations.ListAreas(ctx)
		if err != nil {
			return err
		}
		cities, err := r.locations.ListCities(ctx)
		if err != nil {
			return err
		}
		options := make([]CityOption, len(cities))
		for i := range cities {
			options[i] = CityOption{ID: cities[i].ID, Name: cities[i].DisplayName()}
		}
		facets = VacancyFacets{
			ProfessionalAreas: areas,
			Cities:            options,
			WorkSchedules:     models.WorkSchedules,
			ExperienceLevels:  models.ExperienceLevels,
			SortOptions:       vacancySortOptions.public(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &facets, nil
}

// Create inserts the vacancy. The salary range is checked by the model's
// BeforeSave hook.
func (r *vacancyRepository) Create(ctx context.Context, vacancy *models.Vacancy) error {
	defer observability.TrackQuery("insert", "vacancies")()
	if err := r.checkReferences(ctx, vacancy); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("City", "ProfessionalArea").Create(vacancy).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return mapWriteError(err, vacancyReferenceFields...)
	}
	cache.InvalidateVacancy(ctx, vacancy.ID)
	r.log.LogCreate(ctx, map[string]any{"id": vacancy.ID, "title": vacancy.Title})
	return nil
}

func (r *vacancyRepository) Update(ctx context.Context, vacancy *models.Vacancy) error {
	defer observability.TrackQuery("update", "vacancies")()
	if err := r.checkReferences(ctx, vacancy); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("City", "ProfessionalArea").Save(vacancy).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return mapWriteError(err, vacancyReferenceFields...)
	}
	cache.InvalidateVacancy(ctx, vacancy.ID)
	r.log.LogUpdate(ctx, map[string]any{"id": vacancy.ID})
	return nil
}

// checkReferences reports a missing city or professional area as a field
// error. Drivers that name the column in foreign key errors hit the same
// mapping through mapWriteError when a row vanishes between check and write.
func (r *vacancyRepository) checkReferences(ctx context.Context, vacancy *models.Vacancy) error {
	fields := map[string]string{}
	for _, ref := range []struct {
		field string
		model any
		id    uint
	}{
		{"city_id", &models.City{}, vacancy.CityID},
		{"professional_area_id", &models.ProfessionalArea{}, vacancy.ProfessionalAreaID},
	} {
		var n int64
		if err := r.db.WithContext(ctx).Model(ref.model).Where("id = ?", ref.id).Count(&n).Error; err != nil {
			return models.NewInternalError(err)
		}
		if n == 0 {
			fields[ref.field] = invalidChoice
		}
	}
	if len(fields) > 0 {
		return models.NewFieldsError(fields)
	}
	return nil
}

func (r *vacancyRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "vacancies")()
	res := r.db.WithContext(ctx).Delete(&models.Vacancy{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Vacancy", id)
	}
	cache.InvalidateVacancy(ctx, id)
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
