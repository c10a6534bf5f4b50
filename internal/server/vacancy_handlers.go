package server

import (
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

// VacancyListResponse is one page of vacancies with the applied filters.
type VacancyListResponse struct {
	Filters   fiber.Map                            `json:"filters"`
	Vacancies *repository.Page[models.VacancyView] `json:"vacancies"`
}

// ListVacancies handles GET /api/vacancies
// @Summary List vacancies
// @Description Active vacancies filtered by search text, city, professional area, schedule and experience
// @Tags vacancies
// @Produce json
// @Param q query string false "Search in title and descriptions"
// @Param sort query string false "Ordering" Enums(newest, salary_desc, title)
// @Param city query int false "City ID"
// @Param area query int false "Professional area ID"
// @Param schedule query string false "Work schedule" Enums(full, shift, flex, remote)
// @Param experience query string false "Experience level" Enums(no_exp, 1_3, 3_6, 6_plus)
// @Param page query string false "Page number or 'last'"
// @Success 200 {object} VacancyListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /vacancies [get]
func (s *Server) ListVacancies(c *fiber.Ctx) error {
	cityID, err := queryID(c, "city")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	areaID, err := queryID(c, "area")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	q := service.VacancyQuery{
		Search:     c.Query("q"),
		Sort:       c.Query("sort"),
		CityID:     cityID,
		AreaID:     areaID,
		Schedule:   c.Query("schedule"),
		Experience: c.Query("experience"),
		Page:       queryPage(c),
	}
	page, err := s.vacancies.List(c.UserContext(), q)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(VacancyListResponse{
		Filters: fiber.Map{
			"q":          q.Search,
			"sort":       q.Sort,
			"city":       q.CityID,
			"area":       q.AreaID,
			"schedule":   q.Schedule,
			"experience": q.Experience,
		},
		Vacancies: page,
	})
}

// GetVacancyFilters handles GET /api/vacancies/filters
// @Summary Vacancy filter facets
// @Tags vacancies
// @Produce json
// @Success 200 {object} repository.VacancyFacets
// @Router /vacancies/filters [get]
func (s *Server) GetVacancyFilters(c *fiber.Ctx) error {
	facets, err := s.vacancies.Filters(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(facets)
}

// GetVacancy handles GET /api/vacancies/:pk
// @Summary Vacancy detail
// @Tags vacancies
// @Produce json
// @Param pk path int true "Vacancy ID"
// @Success 200 {object} models.VacancyView
// @Failure 404 {object} models.ErrorResponse
// @Router /vacancies/{pk} [get]
func (s *Server) GetVacancy(c *fiber.Ctx) error {
	id, err := s.parseID(c, "pk")
	if err != nil {
		return nil
	}
	v, err := s.vacancies.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(v)
}

// CreateVacancy handles POST /api/vacancies
// @Summary Create a vacancy
// @Description Staff only. The upper salary bound must exceed the lower one.
// @Tags vacancies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateVacancyInput true "Vacancy"
// @Success 201 {object} models.VacancyView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /vacancies [post]
func (s *Server) CreateVacancy(c *fiber.Ctx) error {
	var in service.CreateVacancyInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	v, err := s.vacancies.Create(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}
