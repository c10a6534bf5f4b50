package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	srv    *Server
	app    *fiber.App
	db     *gorm.DB
	redis  *miniredis.Miniredis
	mailer *testutil.MailerStub
	cfg    *config.Config
	users  int
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            testSecret,
		SiteURL:              "https://shop.example.com",
		DefaultFromEmail:     "shop@example.com",
		MediaRoot:            t.TempDir(),
		ImageMaxUploadSizeMB: 2,
	}
	for _, m := range mutate {
		m(cfg)
	}

	mailer := &testutil.MailerStub{}
	srv, err := NewServerWithDeps(cfg, db, rdb, mailer)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.NewApp(), db: db, redis: mr, mailer: mailer, cfg: cfg}
}

// request sends a JSON request and decodes the JSON answer into out when it
// is non-nil.
func (e *testEnv) request(t *testing.T, method, path string, body any, token string, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return e.send(t, req, out)
}

func (e *testEnv) send(t *testing.T, req *http.Request, out any) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// user stores an active account with password "Tundra-Lantern-91" and
// returns it with a valid access token.
func (e *testEnv) user(t *testing.T, username string, staff bool) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Tundra-Lantern-91"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		PhoneNumber: fmt.Sprintf("+7 (900) 000-00-%02d", e.users),
		FirstName:   "Test",
		LastName:    "User",
		Password:    string(hash),
		IsStaff:     staff,
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(u).Error)
	e.users++

	token, _, err := e.srv.tokens.IssueAccessToken(u)
	require.NoError(t, err)
	return u, token
}

type catalogFixture struct {
	dairy, milk, hidden *models.Category
	kefir, milk1l       *models.Product
	cheese, archived    *models.Product
}

func (e *testEnv) seedCatalog(t *testing.T) *catalogFixture {
	t.Helper()
	f := &catalogFixture{}

	category := func(name, slug string, parent *models.Category, active bool) *models.Category {
		c := &models.Category{Name: name, Slug: slug, IsActive: active}
		if parent != nil {
			c.ParentID = &parent.ID
		}
		require.NoError(t, e.db.Create(c).Error)
		return c
	}
	product := func(cat *models.Category, name, slug, price, discount string, active bool) *models.Product {
		p := &models.Product{
			Name:       name,
			Slug:       slug,
			SKU:        "SKU-" + slug,
			UnitType:   models.UnitPiece,
			Price:      decimal.RequireFromString(price),
			Discount:   decimal.RequireFromString(discount),
			CategoryID: cat.ID,
			Stock:      10,
			IsActive:   active,
		}
		require.NoError(t, e.db.Create(p).Error)
		return p
	}

	f.dairy = category("Dairy", "dairy", nil, true)
	f.milk = category("Milk", "milk", f.dairy, true)
	f.hidden = category("Seasonal", "seasonal", nil, false)

	f.kefir = product(f.dairy, "Kefir", "kefir", "90.00", "0", true)
	f.milk1l = product(f.milk, "Milk 1l", "milk-1l", "120.00", "25", true)
	f.cheese = product(f.dairy, "Cheese", "cheese", "100.00", "0", true)
	f.archived = product(f.milk, "Old milk", "old-milk", "10.00", "0", false)
	return f
}

type vacancyFixture struct {
	city *models.City
	area *models.ProfessionalArea
	open *models.Vacancy
}

func (e *testEnv) seedVacancies(t *testing.T) *vacancyFixture {
	t.Helper()
	ctx := context.Background()
	locs := repository.NewLocationRepository(e.db)

	region, err := locs.EnsureRegion(ctx, "Tatarstan")
	require.NoError(t, err)
	city, err := locs.EnsureCity(ctx, "Kazan", &region.ID)
	require.NoError(t, err)
	area, err := locs.EnsureArea(ctx, "Retail")
	require.NoError(t, err)

	salaryFrom, salaryTo := uint(50000), uint(70000)
	open := &models.Vacancy{
		Title:              "Cashier",
		ShortDescription:   "Front of store",
		Description:        "Serve customers at the till.",
		ProfessionalAreaID: area.ID,
		CityID:             city.ID,
		WorkSchedule:       models.ScheduleShift,
		ExperienceLevel:    models.ExperienceNone,
		SalaryFrom:         &salaryFrom,
		SalaryTo:           &salaryTo,
		IsActive:           true,
		CreatedAt:          time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.db.Create(open).Error)

	closed := &models.Vacancy{
		Title:              "Night guard",
		ShortDescription:   "Closed position",
		Description:        "No longer hiring.",
		ProfessionalAreaID: area.ID,
		CityID:             city.ID,
		WorkSchedule:       models.ScheduleFull,
		ExperienceLevel:    models.ExperienceNone,
		IsActive:           false,
	}
	require.NoError(t, e.db.Create(closed).Error)

	return &vacancyFixture{city: city, area: area, open: open}
}
