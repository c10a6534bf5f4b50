package repository

import (
	"context"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/observability"

	"gorm.io/gorm"
)

// ProductFilter narrows the product list. CategoryID scopes to the category
// and everything below it.
type ProductFilter struct {
	ListFilter
	CategoryID uint
}

// ProductRepository reads and writes catalog products.
type ProductRepository interface {
	All(ctx context.Context) ([]models.Product, error)
	Filter(ctx context.Context, f ProductFilter, p Pagination) (*Page[models.Product], error)
	SortOptions() []SortOption
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	AddImage(ctx context.Context, image *models.ProductImage) error
	NextImageSortOrder(ctx context.Context, productID uint) (int, error)
	EnsureAttribute(ctx context.Context, name string) (*models.Attribute, error)
}

type productRepository struct {
	db         *gorm.DB
	categories CategoryRepository
	log        *observability.RepoLogger
}

// NewProductRepository returns a ProductRepository backed by db.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{
		db:         db,
		categories: NewCategoryRepository(db),
		log:        observability.NewRepoLogger("products"),
	}
}

// finalPriceExpr mirrors Product.CalculateFinalPrice and the
// idx_products_final_price expression index.
const finalPriceExpr = "products.price * (1 - products.discount / 100.0)"

var productDefaultOrder = []string{"products.name ASC", "products.id ASC"}

var productSortOptions = sortOptions{
	{Key: "", Label: "Default"},
	{Key: "price_asc", Label: "Cheapest first", order: []string{finalPriceExpr + " ASC", "products.id ASC"}},
	{Key: "price_desc", Label: "Most expensive first", order: []string{finalPriceExpr + " DESC", "products.id ASC"}},
	{Key: "discount", Label: "By discount amount", order: []string{"products.discount DESC", "products.name ASC", "products.id ASC"}},
}

var productUniqueFields = []uniqueField{
	{column: "slug", field: "slug", message: "A product with this slug already exists."},
	{column: "sku", field: "sku", message: "A product with this SKU already exists."},
}

// withAssociations eager loads everything a product card or page shows.
func withAssociations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Category").
		Preload("Nutrition").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.sort_order ASC, product_images.id ASC")
		}).
		Preload("Attributes.Attribute")
}

// All returns every product with its associations in default order.
func (r *productRepository) All(ctx context.Context) ([]models.Product, error) {
	defer observability.TrackQuery("select", "products")()
	var products []models.Product
	tx := withAssociations(readDB(r.db).WithContext(ctx))
	for _, o := range productDefaultOrder {
		tx = tx.Order(o)
	}
	if err := tx.Find(&products).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

// Filter returns one page of products matching f.
func (r *productRepository) Filter(ctx context.Context, f ProductFilter, p Pagination) (*Page[models.Product], error) {
	var categoryIDs []uint
	if f.CategoryID != 0 {
		ids, err := r.categories.DescendantIDs(ctx, f.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryIDs = ids
	}

	q := listQuery{
		table: "products",
		scope: func(tx *gorm.DB) *gorm.DB {
			tx = activeScope(tx, "products", f.OnlyActive)
			tx = searchScope(tx, f.Search, "products.name")
			if categoryIDs != nil {
				tx = tx.Where("products.category_id IN ?", categoryIDs)
			}
			return tx
		},
		preload: withAssociations,
		order:   productSortOptions.resolve(f.Sort, productDefaultOrder),
	}
	return findPage[models.Product](ctx, readDB(r.db), q, p)
}

// SortOptions lists the product orderings with their labels.
func (r *productRepository) SortOptions() []SortOption {
	return productSortOptions.public()
}

// GetBySlug returns the active product with slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := cache.Aside(ctx, cache.ProductSlugKey(slug), &product, cache.ProductTTL, func() error {
		defer observability.TrackQuery("select", "products")()
		err := withAssociations(readDB(r.db).WithContext(ctx)).
			Where("products.slug = ? AND products.is_active = ?", slug, true).
			First(&product).Error
		if err != nil {
			return notFoundOr(err, "Product", slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByID returns the product whether or not it is active.
func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	defer observability.TrackQuery("select", "products")()
	var product models.Product
	if err := withAssociations(r.db.WithContext(ctx)).First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "Product", id)
	}
	return &product, nil
}

// Create inserts the product with any nutrition, images and attribute values
// set on it.
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	defer observability.TrackQuery("insert", "products")()
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return mapWriteError(err, productUniqueFields...)
	}
	cache.InvalidateProduct(ctx, product.Slug)
	r.log.LogCreate(ctx, map[string]any{"id": product.ID, "slug": product.Slug, "sku": product.SKU})
	return nil
}

var productAssociations = []string{"Category", "Nutrition", "Images", "Attributes"}

// Update saves the product's own columns. Associations are left as they are.
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	defer observability.TrackQuery("update", "products")()

	var previous models.Product
	if err := r.db.WithContext(ctx).Select("id", "slug").First(&previous, product.ID).Error; err != nil {
		return notFoundOr(err, "Product", product.ID)
	}
	if err := r.db.WithContext(ctx).Omit(productAssociations...).Save(product).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return mapWriteError(err, productUniqueFields...)
	}
	cache.Invalidate(ctx, cache.ProductSlugKey(previous.Slug), cache.ProductSlugKey(product.Slug))
	r.log.LogUpdate(ctx, map[string]any{"id": product.ID})
	return nil
}

// Delete removes the product; nutrition, images and attribute values cascade.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "products")()
	var product models.Product
	if err := r.db.WithContext(ctx).Select("id", "slug").First(&product, id).Error; err != nil {
		return notFoundOr(err, "Product", id)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProduct(ctx, product.Slug)
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

// AddImage stores an image record and drops the cached product page.
func (r *productRepository) AddImage(ctx context.Context, image *models.ProductImage) error {
	defer observability.TrackQuery("insert", "product_images")()
	var product models.Product
	if err := r.db.WithContext(ctx).Select("id", "slug").First(&product, image.ProductID).Error; err != nil {
		return notFoundOr(err, "Product", image.ProductID)
	}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProduct(ctx, product.Slug)
	return nil
}

// NextImageSortOrder is one past the highest sort_order among the product's
// images, or 0 when it has none.
func (r *productRepository) NextImageSortOrder(ctx context.Context, productID uint) (int, error) {
	var highest int
	if err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ?", productID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&highest).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return highest + 1, nil
}

// EnsureAttribute returns the attribute called name, creating it if needed.
func (r *productRepository) EnsureAttribute(ctx context.Context, name string) (*models.Attribute, error) {
	attr := models.Attribute{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&attr).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &attr, nil
}
