package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(token)
	})

	tests := []struct {
		name           string
		target         string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{name: "Bearer header", target: "/test", authHeader: "Bearer abc.def", expectedStatus: http.StatusOK, expectedBody: "abc.def"},
		{name: "Lowercase scheme", target: "/test", authHeader: "bearer abc", expectedStatus: http.StatusOK, expectedBody: "abc"},
		{name: "Query fallback", target: "/test?token=qqq", expectedStatus: http.StatusOK, expectedBody: "qqq"},
		{name: "Wrong scheme", target: "/test", authHeader: "Basic abc", expectedStatus: http.StatusUnauthorized},
		{name: "Missing", target: "/test", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.expectedBody, string(body))
			}
		})
	}
}
