package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	getByLoginFn     func(context.Context, string) (*models.User, error)
	existsFn         func(context.Context, string, string) (bool, error)
	createFn         func(context.Context, *models.User) error
	updatePasswordFn func(context.Context, uint, string) error
	touched          []uint
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDFresh(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByLoginFn(ctx, username)
}
func (s *userRepoStub) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getByLoginFn(ctx, login)
}
func (s *userRepoStub) Exists(ctx context.Context, field, value string) (bool, error) {
	return s.existsFn(ctx, field, value)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(context.Context, *models.User) error { return nil }
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) TouchLastLogin(_ context.Context, id uint, _ time.Time) error {
	s.touched = append(s.touched, id)
	return nil
}
func (s *userRepoStub) SetStaff(context.Context, string, bool) (*models.User, error) {
	return nil, errors.New("not implemented")
}
func (s *userRepoStub) ListStaff(context.Context) ([]models.User, error) { return nil, nil }
func (s *userRepoStub) List(context.Context, int, int) ([]models.User, error) {
	return nil, nil
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByLoginFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		existsFn:     func(context.Context, string, string) (bool, error) { return false, nil },
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		updatePasswordFn: func(context.Context, uint, string) error { return nil },
	}
}

// productRepoStub is a stub for repository.ProductRepository.
type productRepoStub struct {
	filterFn    func(context.Context, repository.ProductFilter, repository.Pagination) (*repository.Page[models.Product], error)
	getBySlugFn func(context.Context, string) (*models.Product, error)
	getByIDFn   func(context.Context, uint) (*models.Product, error)
	images      []*models.ProductImage
	addImageErr error
}

func (s *productRepoStub) All(context.Context) ([]models.Product, error) { return nil, nil }
func (s *productRepoStub) Filter(ctx context.Context, f repository.ProductFilter, p repository.Pagination) (*repository.Page[models.Product], error) {
	return s.filterFn(ctx, f, p)
}
func (s *productRepoStub) SortOptions() []repository.SortOption {
	return []repository.SortOption{{Key: "", Label: "Default"}}
}
func (s *productRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *productRepoStub) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.getByIDFn(ctx, id)
}
func (s *productRepoStub) Create(context.Context, *models.Product) error { return nil }
func (s *productRepoStub) Update(context.Context, *models.Product) error { return nil }
func (s *productRepoStub) Delete(context.Context, uint) error            { return nil }
func (s *productRepoStub) AddImage(_ context.Context, img *models.ProductImage) error {
	if s.addImageErr != nil {
		return s.addImageErr
	}
	img.ID = uint(len(s.images) + 1)
	s.images = append(s.images, img)
	return nil
}
func (s *productRepoStub) NextImageSortOrder(context.Context, uint) (int, error) {
	return len(s.images), nil
}
func (s *productRepoStub) EnsureAttribute(_ context.Context, name string) (*models.Attribute, error) {
	return &models.Attribute{ID: 1, Name: name}, nil
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	getParentsFn func(context.Context) ([]models.Category, error)
	getBySlugFn  func(context.Context, string) (*models.Category, error)
}

func (s *categoryRepoStub) GetParents(ctx context.Context) ([]models.Category, error) {
	return s.getParentsFn(ctx)
}
func (s *categoryRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *categoryRepoStub) DescendantIDs(_ context.Context, id uint) ([]uint, error) {
	return []uint{id}, nil
}
func (s *categoryRepoStub) List(context.Context) ([]models.Category, error) { return nil, nil }
func (s *categoryRepoStub) Create(context.Context, *models.Category) error  { return nil }
func (s *categoryRepoStub) Update(context.Context, *models.Category) error  { return nil }
func (s *categoryRepoStub) Delete(context.Context, uint) error              { return nil }

// vacancyRepoStub is a stub for repository.VacancyRepository.
type vacancyRepoStub struct {
	filterFn        func(context.Context, repository.VacancyFilter, repository.Pagination) (*repository.Page[models.Vacancy], error)
	getActiveByIDFn func(context.Context, uint) (*models.Vacancy, error)
	created         []*models.Vacancy
}

func (s *vacancyRepoStub) All(context.Context) ([]models.Vacancy, error) { return nil, nil }
func (s *vacancyRepoStub) Filter(ctx context.Context, f repository.VacancyFilter, p repository.Pagination) (*repository.Page[models.Vacancy], error) {
	return s.filterFn(ctx, f, p)
}
func (s *vacancyRepoStub) SortOptions() []repository.SortOption { return nil }
func (s *vacancyRepoStub) GetActiveByID(ctx context.Context, id uint) (*models.Vacancy, error) {
	return s.getActiveByIDFn(ctx, id)
}
func (s *vacancyRepoStub) Facets(context.Context) (*repository.VacancyFacets, error) {
	return &repository.VacancyFacets{WorkSchedules: models.WorkSchedules}, nil
}
func (s *vacancyRepoStub) Create(_ context.Context, v *models.Vacancy) error {
	v.ID = uint(len(s.created) + 1)
	s.created = append(s.created, v)
	return nil
}
func (s *vacancyRepoStub) Update(context.Context, *models.Vacancy) error { return nil }
func (s *vacancyRepoStub) Delete(context.Context, uint) error            { return nil }

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func uintPtr(v uint) *uint { return &v }
