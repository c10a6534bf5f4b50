package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"storefront/internal/models"
	"storefront/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productNames(page *Page[models.Product]) []string {
	names := make([]string, len(page.Items))
	for i, p := range page.Items {
		names[i] = p.Name
	}
	return names
}

func TestProductRepository_Filter_SearchOnlyActive(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	dairy := mustCategory(t, db, "Dairy", nil, true)
	mustProduct(t, db, dairy, "Whole Milk", "89.90", "0", true)
	mustProduct(t, db, dairy, "Milk Chocolate", "120.00", "0", false)
	mustProduct(t, db, dairy, "Butter", "250.00", "0", true)

	page, err := repo.Filter(ctx, ProductFilter{ListFilter: ListFilter{Search: "milk", OnlyActive: true}}, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Whole Milk"}, productNames(page))
	assert.EqualValues(t, 1, page.Total)

	page, err = repo.Filter(ctx, ProductFilter{ListFilter: ListFilter{Search: "MILK"}}, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk Chocolate", "Whole Milk"}, productNames(page))
}

func TestProductRepository_Filter_EscapesWildcards(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	cat := mustCategory(t, db, "Dairy", nil, true)
	mustProduct(t, db, cat, "Cream 50% fat", "10", "0", true)
	mustProduct(t, db, cat, "Cream 500g", "10", "0", true)
	mustProduct(t, db, cat, "Kefir_1", "10", "0", true)
	mustProduct(t, db, cat, "Kefir 12", "10", "0", true)

	page, err := repo.Filter(context.Background(), ProductFilter{ListFilter: ListFilter{Search: "50%"}}, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Cream 50% fat"}, productNames(page))

	page, err = repo.Filter(context.Background(), ProductFilter{ListFilter: ListFilter{Search: "r_1"}}, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Kefir_1"}, productNames(page))
}

func TestProductRepository_Filter_Sorting(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	cat := mustCategory(t, db, "Grocery", nil, true)
	// final prices: Apples 50.00, Bread 60.00, Cheese 72.00
	mustProduct(t, db, cat, "Cheese", "80.00", "10", true)
	mustProduct(t, db, cat, "Apples", "100.00", "50", true)
	mustProduct(t, db, cat, "Bread", "60.00", "0", true)

	tests := []struct {
		sort string
		want []string
	}{
		{sort: "", want: []string{"Apples", "Bread", "Cheese"}},
		{sort: "price_asc", want: []string{"Apples", "Bread", "Cheese"}},
		{sort: "price_desc", want: []string{"Cheese", "Bread", "Apples"}},
		{sort: "discount", want: []string{"Apples", "Cheese", "Bread"}},
		{sort: "no-such-sort", want: []string{"Apples", "Bread", "Cheese"}},
	}
	for _, tt := range tests {
		t.Run("sort="+tt.sort, func(t *testing.T) {
			page, err := repo.Filter(context.Background(), ProductFilter{ListFilter: ListFilter{OnlyActive: true, Sort: tt.sort}}, NewPagination(1))
			require.NoError(t, err)
			assert.Equal(t, tt.want, productNames(page))
		})
	}

	page, err := repo.Filter(context.Background(), ProductFilter{ListFilter: ListFilter{Sort: "price_desc"}}, NewPagination(1))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("72").Equal(page.Items[0].FinalPrice))
}

func TestProductRepository_Filter_CategoryScope(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	food := mustCategory(t, db, "Food", nil, true)
	dairy := mustCategory(t, db, "Dairy", food, true)
	cheese := mustCategory(t, db, "Cheese", dairy, true)
	drinks := mustCategory(t, db, "Drinks", nil, true)

	mustProduct(t, db, food, "Rice", "10", "0", true)
	mustProduct(t, db, dairy, "Milk", "10", "0", true)
	mustProduct(t, db, cheese, "Gouda", "10", "0", true)
	mustProduct(t, db, drinks, "Juice", "10", "0", true)

	page, err := repo.Filter(context.Background(), ProductFilter{CategoryID: food.ID}, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Gouda", "Milk", "Rice"}, productNames(page))

	page, err = repo.Filter(context.Background(), ProductFilter{CategoryID: dairy.ID}, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Gouda", "Milk"}, productNames(page))
}

func TestProductRepository_Filter_Pagination(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	cat := mustCategory(t, db, "Bulk", nil, true)
	for _, name := range []string{"A01", "A02", "A03", "A04", "A05", "A06", "A07", "A08", "A09", "A10", "A11", "A12", "A13", "A14", "A15", "A16", "A17"} {
		mustProduct(t, db, cat, name, "1", "0", true)
	}

	first, err := repo.Filter(context.Background(), ProductFilter{}, NewPagination(1))
	require.NoError(t, err)
	assert.Len(t, first.Items, 12)
	assert.Equal(t, 2, first.NumPages)
	assert.True(t, first.HasNext)

	second, err := repo.Filter(context.Background(), ProductFilter{}, NewPagination(2))
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
	assert.Equal(t, "A13", second.Items[0].Name)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrev)

	_, err = repo.Filter(context.Background(), ProductFilter{}, NewPagination(3))
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestProductRepository_Filter_Restartable(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	cat := mustCategory(t, db, "Dairy", nil, true)
	mustProduct(t, db, cat, "Whole Milk", "10", "0", true)

	f := ProductFilter{ListFilter: ListFilter{Search: "milk", OnlyActive: true, Sort: "price_asc"}}
	a, err := repo.Filter(context.Background(), f, NewPagination(1))
	require.NoError(t, err)
	b, err := repo.Filter(context.Background(), f, NewPagination(1))
	require.NoError(t, err)
	assert.Equal(t, productNames(a), productNames(b))
	assert.Equal(t, a.Total, b.Total)
}

func TestProductRepository_GetBySlug(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	cat := mustCategory(t, db, "Dairy", nil, true)
	milk := mustProduct(t, db, cat, "Whole Milk", "100", "15", true)
	mustProduct(t, db, cat, "Old Yogurt", "10", "0", false)

	attr, err := repo.EnsureAttribute(ctx, "Fat content")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.ProductAttribute{ProductID: milk.ID, AttributeID: attr.ID, Value: "3.2%"}).Error)
	require.NoError(t, db.Create(&models.ProductImage{ProductID: milk.ID, ImagePath: "b.jpg", SortOrder: 2}).Error)
	require.NoError(t, db.Create(&models.ProductImage{ProductID: milk.ID, ImagePath: "a.jpg", SortOrder: 1}).Error)
	require.NoError(t, db.Create(&models.ProductNutrition{ProductID: milk.ID, Calories: decimal.NewNullDecimal(decimal.RequireFromString("60"))}).Error)

	got, err := repo.GetBySlug(ctx, milk.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Dairy", got.Category.Name)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "a.jpg", got.Images[0].ImagePath)
	require.Len(t, got.Attributes, 1)
	assert.Equal(t, "Fat content", got.Attributes[0].Attribute.Name)
	require.NotNil(t, got.Nutrition)
	assert.True(t, got.Nutrition.Calories.Valid)
	assert.True(t, decimal.RequireFromString("85").Equal(got.FinalPrice))

	_, err = repo.GetBySlug(ctx, "old-yogurt")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = repo.GetBySlug(ctx, "missing")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestProductRepository_CreateDuplicateSKU(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	cat := mustCategory(t, db, "Dairy", nil, true)

	first := &models.Product{Name: "Milk", Slug: "milk", SKU: "M-1", Price: decimal.NewFromInt(10), CategoryID: cat.ID, IsActive: true}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.Product{Name: "Milk 2", Slug: "milk-2", SKU: "M-1", Price: decimal.NewFromInt(10), CategoryID: cat.ID, IsActive: true}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "sku")
}

func TestProductRepository_CategoryDeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	products := NewProductRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()

	food := mustCategory(t, db, "Food", nil, true)
	dairy := mustCategory(t, db, "Dairy", food, true)
	milk := mustProduct(t, db, dairy, "Milk", "10", "0", true)

	require.NoError(t, categories.Delete(ctx, food.ID))

	_, err := products.GetByID(ctx, milk.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProductRepository_Images(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	cat := mustCategory(t, db, "Dairy", nil, true)
	milk := mustProduct(t, db, cat, "Milk", "10", "0", true)

	next, err := repo.NextImageSortOrder(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	require.NoError(t, repo.AddImage(ctx, &models.ProductImage{ProductID: milk.ID, ImagePath: "products/1/a.jpg", SortOrder: next}))
	next, err = repo.NextImageSortOrder(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	err = repo.AddImage(ctx, &models.ProductImage{ProductID: 999, ImagePath: "x.jpg"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestProductRepository_SortOptions(t *testing.T) {
	repo := NewProductRepository(nil)
	opts := repo.SortOptions()
	require.Len(t, opts, 4)
	assert.Equal(t, SortOption{Key: "price_asc", Label: "Cheapest first"}, opts[1])
}

func TestProductRepository_GetByID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE "products"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnError(errors.New("connection timeout"))

	product, err := repo.GetByID(context.Background(), 1)
	assert.Nil(t, product)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Filter_CountError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE products.is_active = $1`)).
		WithArgs(true).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Filter(context.Background(), ProductFilter{ListFilter: ListFilter{OnlyActive: true}}, NewPagination(1))
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Filter_PostgresSearch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE products.is_active = $1 AND (products.name ILIKE $2 ESCAPE '\')`)).
		WithArgs(true, `%100\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := repo.Filter(context.Background(), ProductFilter{ListFilter: ListFilter{Search: "100%", OnlyActive: true}}, NewPagination(1))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.NumPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}
