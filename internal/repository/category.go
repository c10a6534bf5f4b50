package repository

import (
	"context"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/observability"

	"gorm.io/gorm"
)

// CategoryRepository reads and writes the category tree.
type CategoryRepository interface {
	GetParents(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	DescendantIDs(ctx context.Context, id uint) ([]uint, error)
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCategoryRepository returns a CategoryRepository backed by db.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db, log: observability.NewRepoLogger("categories")}
}

var categoryUniqueFields = []uniqueField{
	{column: "slug", field: "slug", message: "A category with this slug already exists."},
	{column: "name", field: "name", message: "A category with this name already exists."},
}

const categoryOrder = "sort_order ASC, name ASC"

// GetParents returns active top-level categories with their active immediate
// subcategories. An inactive parent hides its whole subtree.
func (r *categoryRepository) GetParents(ctx context.Context) ([]models.Category, error) {
	var parents []models.Category
	err := cache.Aside(ctx, cache.CategoryTreeKey, &parents, cache.CategoryTTL, func() error {
		defer observability.TrackQuery("select", "categories")()
		err := readDB(r.db).WithContext(ctx).
			Where("parent_id IS NULL AND is_active = ?", true).
			Preload("Subcategories", func(tx *gorm.DB) *gorm.DB {
				return tx.Where("is_active = ?", true).Order(categoryOrder)
			}).
			Order(categoryOrder).
			Find(&parents).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if parents == nil {
		parents = []models.Category{}
	}
	return parents, nil
}

// GetBySlug returns the active category with slug.
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := cache.Aside(ctx, cache.CategorySlugKey(slug), &category, cache.CategoryTTL, func() error {
		defer observability.TrackQuery("select", "categories")()
		err := readDB(r.db).WithContext(ctx).
			Where("slug = ? AND is_active = ?", slug, true).
			First(&category).Error
		if err != nil {
			return notFoundOr(err, "Category", slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

type categoryEdge struct {
	ID       uint
	ParentID *uint
}

// DescendantIDs returns id followed by the ids of every category below it,
// breadth first. The tree is loaded as an adjacency list indexed by id and
// walked with a visited set, so a cycle in the data ends the walk instead of
// looping.
func (r *categoryRepository) DescendantIDs(ctx context.Context, id uint) ([]uint, error) {
	defer observability.TrackQuery("select", "categories")()

	var edges []categoryEdge
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Category{}).
		Select("id", "parent_id").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return walkDescendants(id, edges), nil
}

func walkDescendants(root uint, edges []categoryEdge) []uint {
	children := make(map[uint][]uint, len(edges))
	for _, e := range edges {
		if e.ParentID != nil {
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	visited := map[uint]bool{root: true}
	out := []uint{root}
	for queue := []uint{root}; len(queue) > 0; queue = queue[1:] {
		for _, child := range children[queue[0]] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// List returns every category, active or not, in display order.
func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := readDB(r.db).WithContext(ctx).Order(categoryOrder).Find(&categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	defer observability.TrackQuery("insert", "categories")()
	if err := r.db.WithContext(ctx).Omit("Subcategories").Create(category).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return mapWriteError(err, categoryUniqueFields...)
	}
	cache.InvalidateCategories(ctx, category.Slug)
	r.log.LogCreate(ctx, map[string]any{"id": category.ID, "slug": category.Slug})
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	defer observability.TrackQuery("update", "categories")()
	var previous models.Category
	if err := r.db.WithContext(ctx).Select("id", "slug").First(&previous, category.ID).Error; err != nil {
		return notFoundOr(err, "Category", category.ID)
	}
	if err := r.db.WithContext(ctx).Omit("Subcategories").Save(category).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return mapWriteError(err, categoryUniqueFields...)
	}
	// Cached products embed their category.
	keys, err := r.cacheKeys(ctx, []uint{category.ID})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		keys = []string{cache.CategoryTreeKey}
	}
	keys = append(keys, cache.CategorySlugKey(previous.Slug), cache.CategorySlugKey(category.Slug))
	cache.Invalidate(ctx, keys...)
	r.log.LogUpdate(ctx, map[string]any{"id": category.ID})
	return nil
}

// Delete removes the category. Subcategories and their products go with it,
// so their cache entries are collected before the rows disappear.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "categories")()
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return notFoundOr(err, "Category", id)
	}
	ids, err := r.DescendantIDs(ctx, id)
	if err != nil {
		return err
	}
	keys, err := r.cacheKeys(ctx, ids)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&category).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, append(keys, cache.CategorySlugKey(category.Slug))...)
	r.log.LogDelete(ctx, map[string]any{"id": id, "categories": len(ids)})
	return nil
}

// cacheKeys lists the tree key plus the slug keys of the given categories and
// of every product filed under them.
func (r *categoryRepository) cacheKeys(ctx context.Context, ids []uint) ([]string, error) {
	var categorySlugs, productSlugs []string
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id IN ?", ids).
		Pluck("slug", &categorySlugs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id IN ?", ids).
		Pluck("slug", &productSlugs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	keys := make([]string, 0, 1+len(categorySlugs)+len(productSlugs))
	keys = append(keys, cache.CategoryTreeKey)
	for _, slug := range categorySlugs {
		keys = append(keys, cache.CategorySlugKey(slug))
	}
	for _, slug := range productSlugs {
		keys = append(keys, cache.ProductSlugKey(slug))
	}
	return keys, nil
}
