package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ProductSlugKeyPrefix  = "product:slug:%s"
	CategorySlugKeyPrefix = "category:slug:%s"
	CategoryTreeKey       = "category:tree"
	VacancyKeyPrefix      = "vacancy:%d"
	VacancyFacetsKey      = "vacancy:facets"
	UserKeyPrefix         = "user:%d"
)

const (
	ProductTTL      = 10 * time.Minute
	CategoryTTL     = 30 * time.Minute
	VacancyTTL      = 10 * time.Minute
	VacancyFacetTTL = 30 * time.Minute
	UserTTL         = 5 * time.Minute
)

func ProductSlugKey(slug string) string {
	return fmt.Sprintf(ProductSlugKeyPrefix, slug)
}

func CategorySlugKey(slug string) string {
	return fmt.Sprintf(CategorySlugKeyPrefix, slug)
}

func VacancyKey(id uint) string {
	return fmt.Sprintf(VacancyKeyPrefix, id)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Invalidate removes keys; it is a no-op when Redis is not configured.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateProduct(ctx context.Context, slug string) {
	Invalidate(ctx, ProductSlugKey(slug))
}

// InvalidateCategories drops the cached tree and one slug entry.
func InvalidateCategories(ctx context.Context, slug string) {
	Invalidate(ctx, CategoryTreeKey, CategorySlugKey(slug))
}

func InvalidateVacancy(ctx context.Context, id uint) {
	Invalidate(ctx, VacancyKey(id), VacancyFacetsKey)
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
