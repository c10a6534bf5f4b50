package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"pk", "ID"},
		{"productId", "product ID"},
		{"professionalAreaId", "professional area ID"},
		{"slug", "slug"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- queryPage ---

func TestQueryPage(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": queryPage(c)})
	})

	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?page=3", 3},
		{"?page=%20%202", 2},
		{"?page=last", repository.LastPage},
		{"?page=abc", 1},
		{"?page=0", math.MinInt32},
		{"?page=-4", math.MinInt32},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body struct {
				Page int `json:"page"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Page)
		})
	}
}

// --- queryID ---

func TestQueryID(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		id, err := queryID(c, "city")
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		name   string
		query  string
		status int
		want   uint
	}{
		{"absent", "", http.StatusOK, 0},
		{"blank", "?city=", http.StatusOK, 0},
		{"valid", "?city=7", http.StatusOK, 7},
		{"zero", "?city=0", http.StatusBadRequest, 0},
		{"negative", "?city=-1", http.StatusBadRequest, 0},
		{"text", "?city=kazan", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, tt.status, resp.StatusCode)

			if tt.status != http.StatusOK {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, invalidChoice, body.Fields["city"])
				return
			}
			var body struct {
				ID uint `json:"id"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body.ID)
		})
	}
}

// --- parseID ---

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/items/:pk", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "pk")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for path, status := range map[string]int{
		"/items/12":  http.StatusOK,
		"/items/0":   http.StatusNotFound,
		"/items/-3":  http.StatusNotFound,
		"/items/abc": http.StatusNotFound,
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, status, resp.StatusCode)
		})
	}
}

func TestBindJSON_MalformedBody(t *testing.T) {
	app := fiber.New()
	app.Post("/items", func(c *fiber.Ctx) error {
		var dst struct {
			Name string `json:"name"`
		}
		if err := bindJSON(c, &dst); err != nil {
			return nil
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	bad := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("{not json"))
	bad.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(bad)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
