package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func mustCategory(t *testing.T, db *gorm.DB, name string, parent *models.Category, active bool) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slugify(name), IsActive: active}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func mustProduct(t *testing.T, db *gorm.DB, cat *models.Category, name string, price, discount string, active bool) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       name,
		Slug:       slugify(name),
		SKU:        "SKU-" + slugify(name),
		Price:      decimal.RequireFromString(price),
		Discount:   decimal.RequireFromString(discount),
		CategoryID: cat.ID,
		Stock:      5,
		IsActive:   active,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func slugify(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

type vacancyFixture struct {
	db    *gorm.DB
	city  *models.City
	city2 *models.City
	area  *models.ProfessionalArea
	area2 *models.ProfessionalArea
}

func newVacancyFixture(t *testing.T) *vacancyFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	locs := NewLocationRepository(db)
	ctx := context.Background()

	region, err := locs.EnsureRegion(ctx, "Moscow Oblast")
	require.NoError(t, err)
	city, err := locs.EnsureCity(ctx, "Khimki", &region.ID)
	require.NoError(t, err)
	city2, err := locs.EnsureCity(ctx, "Moscow", nil)
	require.NoError(t, err)
	area, err := locs.EnsureArea(ctx, "Retail")
	require.NoError(t, err)
	area2, err := locs.EnsureArea(ctx, "Logistics")
	require.NoError(t, err)

	return &vacancyFixture{db: db, city: city, city2: city2, area: area, area2: area2}
}

func (f *vacancyFixture) add(t *testing.T, title string, mutate func(v *models.Vacancy)) *models.Vacancy {
	t.Helper()
	v := &models.Vacancy{
		Title:              title,
		ShortDescription:   fmt.Sprintf("%s short", title),
		Description:        fmt.Sprintf("%s description", title),
		ProfessionalAreaID: f.area.ID,
		CityID:             f.city.ID,
		WorkSchedule:       models.ScheduleFull,
		ExperienceLevel:    models.ExperienceNone,
		IsActive:           true,
		CreatedAt:          time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(v)
	}
	require.NoError(t, f.db.Create(v).Error)
	return v
}

func uintPtr(v uint) *uint { return &v }
