package server

import (
	"io"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProductListResponse is one page of products with the active query echoed
// back so the client can render the search box and sort selector.
type ProductListResponse struct {
	Query       string                           `json:"q"`
	Sort        string                           `json:"sort"`
	SortOptions []repository.SortOption          `json:"sort_options"`
	Products    *repository.Page[models.Product] `json:"products"`
}

// CategoryResponse is a category with its product page.
type CategoryResponse struct {
	ProductListResponse
	Category *models.Category `json:"category"`
}

// ProductImageResponse is a stored product image with public URLs.
type ProductImageResponse struct {
	*models.ProductImage
	URL      string `json:"url"`
	WebPURL  string `json:"webp_url,omitempty"`
	ThumbURL string `json:"thumb_url,omitempty"`
}

func catalogQuery(c *fiber.Ctx) service.CatalogQuery {
	return service.CatalogQuery{
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
		Page:   queryPage(c),
	}
}

// ListProducts handles GET /api/catalog
// @Summary List products
// @Description Active products, searchable by name, 12 per page
// @Tags catalog
// @Produce json
// @Param q query string false "Search text"
// @Param sort query string false "Ordering" Enums(price_asc, price_desc, discount)
// @Param page query string false "Page number or 'last'"
// @Success 200 {object} ProductListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog [get]
func (s *Server) ListProducts(c *fiber.Ctx) error {
	q := catalogQuery(c)
	page, err := s.catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(ProductListResponse{
		Query:       q.Search,
		Sort:        q.Sort,
		SortOptions: s.catalog.SortOptions(),
		Products:    page,
	})
}

// GetSortOptions handles GET /api/catalog/sort-options
// @Summary Product ordering options
// @Tags catalog
// @Produce json
// @Success 200 {array} repository.SortOption
// @Router /catalog/sort-options [get]
func (s *Server) GetSortOptions(c *fiber.Ctx) error {
	return c.JSON(s.catalog.SortOptions())
}

// GetCategories handles GET /api/catalog/categories
// @Summary Category menu
// @Description Active top-level categories with their active subcategories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Router /catalog/categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.catalog.Categories(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/catalog/categories/:slug
// @Summary Category with products
// @Description Products of the category and all its subcategories
// @Tags catalog
// @Produce json
// @Param slug path string true "Category slug"
// @Param q query string false "Search text"
// @Param sort query string false "Ordering"
// @Param page query string false "Page number or 'last'"
// @Success 200 {object} CategoryResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/categories/{slug} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	q := catalogQuery(c)
	res, err := s.catalog.Category(c.UserContext(), c.Params("slug"), q)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(CategoryResponse{
		ProductListResponse: ProductListResponse{
			Query:       q.Search,
			Sort:        q.Sort,
			SortOptions: s.catalog.SortOptions(),
			Products:    res.Products,
		},
		Category: res.Category,
	})
}

// GetProduct handles GET /api/catalog/products/:slug
// @Summary Product detail
// @Description Active product with category, images, attributes and nutrition
// @Tags catalog
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/products/{slug} [get]
func (s *Server) GetProduct(c *fiber.Ctx) error {
	product, err := s.catalog.Product(c.UserContext(), c.Params("slug"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(product)
}

// UploadProductImage handles POST /api/catalog/products/:id/images
// @Summary Upload a product image
// @Description Staff only. The picture is cropped to the nearest of 4:3, 1:1 or 3:4 and stored as JPEG plus WebP variants.
// @Tags catalog
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param image formData file true "Image file"
// @Param alt_text formData string false "Alternative text"
// @Success 201 {object} ProductImageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /catalog/products/{id}/images [post]
func (s *Server) UploadProductImage(c *fiber.Ctx) error {
	productID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithAppError(c, models.NewFieldError("image", "No file was submitted."))
	}
	src, err := file.Open()
	if err != nil {
		return models.RespondWithAppError(c, models.NewFieldError("image", "Unable to read uploaded file."))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, s.images.MaxUploadSizeBytes()+1))
	if err != nil {
		return models.RespondWithAppError(c, models.NewFieldError("image", "Unable to read uploaded file."))
	}

	img, err := s.images.Upload(c.UserContext(), service.UploadImageInput{
		ProductID:   productID,
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		AltText:     c.FormValue("alt_text"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ProductImageResponse{
		ProductImage: img,
		URL:          service.MediaURL(img.ImagePath),
		WebPURL:      service.MediaURL(img.WebPPath),
		ThumbURL:     service.MediaURL(img.ThumbPath),
	})
}
