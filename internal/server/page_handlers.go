package server

import (
	_ "embed"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

//go:embed content/pages.yml
var pagesYAML []byte

// PageSection is one headed block of a static page.
type PageSection struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body"`
}

// Page is an informational page: privacy, terms or offer.
type Page struct {
	Slug     string        `yaml:"-" json:"slug"`
	Title    string        `yaml:"title" json:"title"`
	Sections []PageSection `yaml:"sections" json:"sections"`
}

var staticPages = mustLoadPages(pagesYAML)

func mustLoadPages(raw []byte) map[string]Page {
	pages := make(map[string]Page)
	if err := yaml.Unmarshal(raw, &pages); err != nil {
		panic(fmt.Sprintf("parse static pages: %v", err))
	}
	for slug, p := range pages {
		p.Slug = slug
		pages[slug] = p
	}
	return pages
}

// SubmitContact handles POST /api/pages/contact
// @Summary Contact form
// @Description Sends the message to the shop and a confirmation to the sender. A delivery failure is reported with sent=false.
// @Tags pages
// @Accept json
// @Produce json
// @Param request body service.ContactInput true "Contact form"
// @Success 200 {object} service.ContactResult
// @Failure 400 {object} models.ErrorResponse
// @Router /pages/contact [post]
func (s *Server) SubmitContact(c *fiber.Ctx) error {
	var in service.ContactInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	res, err := s.contact.Submit(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// GetPage handles GET /api/pages/:page
// @Summary Static page
// @Tags pages
// @Produce json
// @Param page path string true "Page" Enums(privacy, terms, offer)
// @Success 200 {object} Page
// @Failure 404 {object} models.ErrorResponse
// @Router /pages/{page} [get]
func (s *Server) GetPage(c *fiber.Ctx) error {
	slug := c.Params("page")
	page, ok := staticPages[slug]
	if !ok {
		return models.RespondWithAppError(c, models.NewNotFoundError("Page", slug))
	}
	return c.JSON(page)
}
