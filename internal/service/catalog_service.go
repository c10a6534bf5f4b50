package service

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// CatalogQuery is the product list request: q, sort and page.
type CatalogQuery struct {
	Search string
	Sort   string
	Page   int
}

// CategoryProducts is a category with the products listed under it and its
// subcategories.
type CategoryProducts struct {
	Category *models.Category                 `json:"category"`
	Products *repository.Page[models.Product] `json:"products"`
}

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

// ListProducts pages through active products.
func (s *CatalogService) ListProducts(ctx context.Context, q CatalogQuery) (*repository.Page[models.Product], error) {
	return s.products.Filter(ctx, productFilter(q, 0), repository.NewPagination(q.Page))
}

func (s *CatalogService) SortOptions() []repository.SortOption {
	return s.products.SortOptions()
}

// Categories returns the two-tier category menu.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.categories.GetParents(ctx)
}

// Category returns an active category and a page of its products,
// descendants included.
func (s *CatalogService) Category(ctx context.Context, slug string, q CatalogQuery) (*CategoryProducts, error) {
	category, err := s.categories.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	page, err := s.products.Filter(ctx, productFilter(q, category.ID), repository.NewPagination(q.Page))
	if err != nil {
		return nil, err
	}
	return &CategoryProducts{Category: category, Products: page}, nil
}

// Product returns an active product by slug.
func (s *CatalogService) Product(ctx context.Context, slug string) (*models.Product, error) {
	return s.products.GetBySlug(ctx, strings.TrimSpace(slug))
}

func productFilter(q CatalogQuery, categoryID uint) repository.ProductFilter {
	return repository.ProductFilter{
		ListFilter: repository.ListFilter{
			Search:     strings.TrimSpace(q.Search),
			OnlyActive: true,
			Sort:       strings.TrimSpace(q.Sort),
		},
		CategoryID: categoryID,
	}
}
