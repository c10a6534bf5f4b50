package server

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const invalidChoice = "Select a valid choice. That choice is not one of the available choices."

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response, the same answer an unknown id
// gets, and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(humanizeParam(param), c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "pk" -> "ID", "productId" -> "product ID".
func humanizeParam(param string) string {
	if param == "id" || param == "pk" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// queryPage reads the 1-based "page" parameter. "last" selects the final
// page; a missing or non-numeric value is page 1.
func queryPage(c *fiber.Ctx) int {
	raw := strings.TrimSpace(c.Query("page"))
	if raw == "last" {
		return repository.LastPage
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if page < 1 {
		// Below range; the repository answers NotFound.
		return math.MinInt32
	}
	return page
}

// queryID reads an optional id filter. An empty value is 0; a malformed one
// is a field error under name.
func queryID(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewFieldError(name, invalidChoice)
	}
	return uint(id), nil
}

// accessClaims returns the claims AuthRequired stored for this request.
func accessClaims(c *fiber.Ctx) (*service.AccessClaims, bool) {
	claims, ok := c.Locals("claims").(*service.AccessClaims)
	return claims, ok && claims != nil
}

// bindJSON parses the body into dst and writes a 400 on malformed input.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}
