package service

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

// VacancyQuery is the vacancy list request. Empty values leave a dimension
// unrestricted.
type VacancyQuery struct {
	Search     string
	Sort       string
	CityID     uint
	AreaID     uint
	Schedule   string
	Experience string
	Page       int
}

type CreateVacancyInput struct {
	Title              string `json:"title" validate:"required,max=255"`
	ShortDescription   string `json:"short_description" validate:"required,max=500"`
	Description        string `json:"description" validate:"required"`
	ProfessionalAreaID uint   `json:"professional_area_id" validate:"required"`
	CityID             uint   `json:"city_id" validate:"required"`
	WorkSchedule       string `json:"work_schedule" validate:"omitempty,oneof=full shift flex remote"`
	ExperienceLevel    string `json:"experience_level" validate:"omitempty,oneof=no_exp 1_3 3_6 6_plus"`
	SalaryFrom         *uint  `json:"salary_from"`
	SalaryTo           *uint  `json:"salary_to"`
	IsActive           *bool  `json:"is_active"`
}

type VacancyService struct {
	vacancies repository.VacancyRepository
}

func NewVacancyService(vacancies repository.VacancyRepository) *VacancyService {
	return &VacancyService{vacancies: vacancies}
}

// List pages through active vacancies.
func (s *VacancyService) List(ctx context.Context, q VacancyQuery) (*repository.Page[models.VacancyView], error) {
	f := repository.VacancyFilter{
		ListFilter: repository.ListFilter{
			Search:     strings.TrimSpace(q.Search),
			OnlyActive: true,
			Sort:       strings.TrimSpace(q.Sort),
		},
		CityID: q.CityID,
		AreaID: q.AreaID,
	}
	if q.Schedule != "" {
		schedule := models.WorkSchedule(q.Schedule)
		if !schedule.Valid() {
			return nil, models.NewFieldError("schedule", "Select a valid choice.")
		}
		f.WorkSchedule = schedule
	}
	if q.Experience != "" {
		level := models.ExperienceLevel(q.Experience)
		if !level.Valid() {
			return nil, models.NewFieldError("experience", "Select a valid choice.")
		}
		f.ExperienceLevel = level
	}

	page, err := s.vacancies.Filter(ctx, f, repository.NewPagination(q.Page))
	if err != nil {
		return nil, err
	}
	views := make([]models.VacancyView, len(page.Items))
	for i := range page.Items {
		views[i] = page.Items[i].View()
	}
	return &repository.Page[models.VacancyView]{
		Items:    views,
		Total:    page.Total,
		Page:     page.Page,
		PerPage:  page.PerPage,
		NumPages: page.NumPages,
		HasNext:  page.HasNext,
		HasPrev:  page.HasPrev,
	}, nil
}

// Filters returns the facets the list can be narrowed by.
func (s *VacancyService) Filters(ctx context.Context) (*repository.VacancyFacets, error) {
	return s.vacancies.Facets(ctx)
}

// Get returns an active vacancy.
func (s *VacancyService) Get(ctx context.Context, id uint) (*models.VacancyView, error) {
	v, err := s.vacancies.GetActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := v.View()
	return &view, nil
}

// Create stores a new vacancy. New vacancies are active unless is_active is
// sent as false.
func (s *VacancyService) Create(ctx context.Context, in CreateVacancyInput) (*models.VacancyView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	if fields := validation.Struct(in, nil); fields != nil {
		return nil, models.NewFieldsError(fields)
	}

	v := &models.Vacancy{
		Title:              in.Title,
		ShortDescription:   in.ShortDescription,
		Description:        in.Description,
		ProfessionalAreaID: in.ProfessionalAreaID,
		CityID:             in.CityID,
		WorkSchedule:       models.ScheduleFull,
		ExperienceLevel:    models.ExperienceNone,
		SalaryFrom:         in.SalaryFrom,
		SalaryTo:           in.SalaryTo,
		IsActive:           in.IsActive == nil || *in.IsActive,
	}
	if in.WorkSchedule != "" {
		v.WorkSchedule = models.WorkSchedule(in.WorkSchedule)
	}
	if in.ExperienceLevel != "" {
		v.ExperienceLevel = models.ExperienceLevel(in.ExperienceLevel)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	if err := s.vacancies.Create(ctx, v); err != nil {
		return nil, err
	}
	view := v.View()
	return &view, nil
}
